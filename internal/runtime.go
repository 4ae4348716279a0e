package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/overlay"
	"github.com/starford/arbor/internal/state"
	"github.com/starford/arbor/internal/storage"
	"github.com/starford/arbor/internal/tree"
	"github.com/starford/arbor/internal/workspace"
)

// NewLogger returns the JSON logger used by every entrypoint.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Runtime holds the components built from one Config. It is shared by the
// HTTP server and the one-shot CLI commands.
type Runtime struct {
	Store     *storage.FS
	Tree      *tree.Tree
	Workspace *workspace.Workspace
	Service   *noteservice.Service

	state state.Store
}

// Open builds the tree engine and its collaborators for cfg. The workspace
// root is created if missing. Extra tree options are applied after the
// defaults derived from cfg.
func Open(cfg *Config, logger *slog.Logger, opts ...tree.Option) (*Runtime, error) {
	if err := os.MkdirAll(cfg.Workspace.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	store, err := storage.NewFS(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	overlays := overlay.NewStore(store.Root())
	ovCfg, err := overlays.Load()
	if errors.Is(err, apperr.ErrConfigCorrupt) && cfg.Workspace.ResetCorruptOverlay {
		logger.Warn("overlay unreadable, starting over",
			slog.String("path", overlays.Path()),
			slog.String("backup", overlays.Path()+".corrupt"),
			slog.String("error", err.Error()))
		ovCfg, err = overlays.Reset()
	}
	if err != nil {
		return nil, fmt.Errorf("load overlay: %w", err)
	}

	st, err := state.Open(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("init state: %w", err)
	}

	treeOpts := append([]tree.Option{
		tree.WithLogger(logger),
		tree.WithCollation(cfg.Workspace.Language()),
	}, opts...)
	t := tree.New(store, overlays, ovCfg, treeOpts...)

	ws := workspace.New(t, st, logger)
	return &Runtime{
		Store:     store,
		Tree:      t,
		Workspace: ws,
		Service:   noteservice.NewService(ws, cfg.Workspace.OpTimeout, logger),
		state:     st,
	}, nil
}

// Close releases the state database.
func (r *Runtime) Close() error {
	return r.state.Close()
}
