package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	pkgconfig "github.com/starford/arbor/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Workspace.Language() != language.Und {
		t.Errorf("default collation = %v, want und", cfg.Workspace.Language())
	}
}

func TestWorkspaceConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkspaceConfig)
		ok     bool
	}{
		{"defaults", func(*WorkspaceConfig) {}, true},
		{"missing root", func(c *WorkspaceConfig) { c.Root = "" }, false},
		{"zero timeout", func(c *WorkspaceConfig) { c.OpTimeout = 0 }, false},
		{"negative debounce", func(c *WorkspaceConfig) { c.WatchDebounce = -time.Second }, false},
		{"zero debounce", func(c *WorkspaceConfig) { c.WatchDebounce = 0 }, true},
		{"german collation", func(c *WorkspaceConfig) { c.Collate = "de" }, true},
		{"bad collation", func(c *WorkspaceConfig) { c.Collate = "not a tag!" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Workspace
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStateConfig_RequiresPath(t *testing.T) {
	cfg := StateConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty state path should fail validation")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ARBOR_TEST_ROOT", "/srv/notes")
	data := `
app:
  log_level: debug
  http:
    port: 9090
workspace:
  root: ${ARBOR_TEST_ROOT}
  op_timeout: 3s
  collate: sv
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Workspace.Root != "/srv/notes" || cfg.Workspace.OpTimeout != 3*time.Second {
		t.Errorf("workspace = %+v", cfg.Workspace)
	}
	if cfg.Workspace.WatchDebounce != 200*time.Millisecond {
		t.Errorf("unset debounce should keep its default, got %v", cfg.Workspace.WatchDebounce)
	}
	if cfg.State.Path != "./arbor.db" {
		t.Errorf("state path = %q", cfg.State.Path)
	}
}
