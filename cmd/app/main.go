package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/arbor/internal"
	"github.com/starford/arbor/internal/mcpserver"
	pkgconfig "github.com/starford/arbor/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Workspace.Root = root
	}
	return cfg, nil
}

// openRuntime builds the workspace for one-shot commands. Logs go to stderr
// so stdout stays free for command output and the MCP protocol.
func openRuntime(cmd *cli.Command) (*internal.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	return internal.Open(cfg, logger)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(_ context.Context, cmd *cli.Command) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return mcpserver.New(rt.Service, version).ServeStdio()
}

func printTree(ctx context.Context, cmd *cli.Command) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, err := rt.Service.Outline(ctx, cmd.String("path"), int(cmd.Int("depth")))
	if err != nil {
		return err
	}
	_, err = out.WriteTo(os.Stdout)
	return err
}

func doctor(ctx context.Context, cmd *cli.Command) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	issues, err := rt.Service.Check(ctx)
	if err != nil {
		return err
	}
	for _, is := range issues {
		fmt.Printf("%s\t%s\n", is.Kind, is.Path)
	}
	if len(issues) == 0 {
		fmt.Println("no issues found")
	}

	if cmd.Bool("compact") {
		removed, err := rt.Service.Compact(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("compacted %d overlay entries\n", len(removed))
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "arbor",
		Usage:   "Hierarchical Markdown notes stored as nested directories",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root, overrides workspace.root",
				Sources: cli.EnvVars("ARBOR_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the REST API, event stream and file watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose tree operations as MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "tree",
				Usage:  "Print the note outline",
				Action: printTree,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Note path to start from",
					},
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Maximum depth, -1 for unbounded",
						Value: -1,
					},
				},
			},
			{
				Name:   "doctor",
				Usage:  "Report inconsistencies between the filesystem and the overlay",
				Action: doctor,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Drop overlay entries whose directory no longer exists",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
