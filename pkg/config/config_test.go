package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

func writeFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "arbor")
	path := writeFile(t, "name: ${SAMPLE_NAME}\nlimit: 3\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "arbor" || s.Limit != 3 {
		t.Errorf("loaded %+v", s)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, "name: x\n")
	s := sample{Limit: 7}
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Limit != 7 {
		t.Errorf("limit = %d, want default 7", s.Limit)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "limit: 0\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("Load = %v, want validation error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	s := sample{Limit: 1}
	if err := LoadOptional(missing, &s); err != nil {
		t.Fatalf("LoadOptional missing: %v", err)
	}

	var bad sample
	if err := LoadOptional(missing, &bad); err == nil {
		t.Error("defaults must still be validated")
	}

	path := writeFile(t, "limit: 5\n")
	if err := LoadOptional(path, &s); err != nil || s.Limit != 5 {
		t.Errorf("LoadOptional present = %+v, %v", s, err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "name: [unterminated\n")
	var s sample
	if err := Load(path, &s); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("Load = %v, want parse error", err)
	}
}
