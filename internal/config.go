package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	State     StateConfig       `yaml:"state"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig describes the note tree being served.
type WorkspaceConfig struct {
	// Root is the directory holding the top-level "*.md.d" note directories.
	Root string `yaml:"root"`
	// OpTimeout bounds every tree operation issued by a command.
	OpTimeout time.Duration `yaml:"op_timeout"`
	// WatchDebounce is how long the watcher waits for a burst of external
	// changes to settle before publishing a refresh.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	// Collate is the BCP-47 tag used to order children the overlay has not
	// recorded yet.
	Collate string `yaml:"collate"`
	// ResetCorruptOverlay moves an unreadable vscode-tree.json aside instead
	// of refusing to start.
	ResetCorruptOverlay bool `yaml:"reset_corrupt_overlay"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.OpTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Collate, validation.Required, validation.By(validLanguage)),
	)
}

// Language returns the parsed collation tag.
func (c *WorkspaceConfig) Language() language.Tag {
	tag, err := language.Parse(c.Collate)
	if err != nil {
		return language.Und
	}
	return tag
}

func validLanguage(value interface{}) error {
	s, _ := value.(string)
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a valid BCP-47 language tag")
	}
	return nil
}

// StateConfig holds the SQLite file that persists workspace state.
type StateConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the state configuration.
func (c *StateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Workspace: WorkspaceConfig{
			Root:          "./notes",
			OpTimeout:     10 * time.Second,
			WatchDebounce: 200 * time.Millisecond,
			Collate:       "und",
		},
		State: StateConfig{
			Path: "./arbor.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
