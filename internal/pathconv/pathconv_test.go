package pathconv

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/arbor/internal/apperr"
)

func TestChildDirRoundTrip(t *testing.T) {
	names := []string{"Alpha", "two words", "ünïcödé", "v1.2", "a-1", ".hidden", "日本語"}
	for _, name := range names {
		dir, err := ChildDir("/ws", name)
		if err != nil {
			t.Fatalf("ChildDir(%q): %v", name, err)
		}
		if want := filepath.Join("/ws", name+".md.d"); dir != want {
			t.Errorf("ChildDir(%q) = %q, want %q", name, dir, want)
		}
		if got, want := DirToFile(dir), filepath.Join("/ws", name+".md"); got != want {
			t.Errorf("DirToFile = %q, want %q", got, want)
		}
		if got := FileToDir(DirToFile(dir)); got != dir {
			t.Errorf("FileToDir(DirToFile) = %q, want %q", got, dir)
		}
		if got := DisplayName(dir); got != name {
			t.Errorf("DisplayName = %q, want %q", got, name)
		}
	}
}

func TestValidateNameRejects(t *testing.T) {
	bad := []string{
		"",
		".",
		"..",
		"a/b",
		`a\b`,
		"what?",
		"star*",
		"pipe|",
		"col:on",
		"tab\tname",
		"CON",
		"lpt1",
		"trailing.",
		"trailing ",
		strings.Repeat("x", 300),
	}
	for _, name := range bad {
		err := ValidateName(name)
		if err == nil {
			t.Errorf("ValidateName(%q) should fail", name)
			continue
		}
		if !errors.Is(err, apperr.ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
		if _, err := ChildDir("/ws", name); err == nil {
			t.Errorf("ChildDir(%q) should fail", name)
		}
	}
}

func TestIsChildDirName(t *testing.T) {
	cases := map[string]bool{
		"a.md.d":    true,
		"a b.md.d":  true,
		".md.d":     false,
		"a.md":      false,
		"a.d":       false,
		".git":      false,
		"notes.txt": false,
	}
	for name, want := range cases {
		if got := IsChildDirName(name); got != want {
			t.Errorf("IsChildDirName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsUnder(t *testing.T) {
	if !IsUnder("/ws/a.md", "/ws") {
		t.Error("/ws/a.md should be under /ws")
	}
	if IsUnder("/ws", "/ws") {
		t.Error("dir is not under itself")
	}
	if IsUnder("/wsx/a.md", "/ws") {
		t.Error("sibling prefix must not match")
	}
	if IsUnder("/other/a.md", "/ws") {
		t.Error("/other is not under /ws")
	}
}

func TestNotePathRoundTrip(t *testing.T) {
	dir, err := DirFromNotePath("/ws", "Projects/Arbor")
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/ws/Projects.md.d/Arbor.md.d" {
		t.Errorf("DirFromNotePath = %q", dir)
	}
	p, err := NotePath("/ws", dir)
	if err != nil {
		t.Fatal(err)
	}
	if p != "Projects/Arbor" {
		t.Errorf("NotePath = %q", p)
	}

	if dir, _ := DirFromNotePath("/ws", ""); dir != "/ws" {
		t.Errorf("empty note path = %q, want root", dir)
	}
	if p, _ := NotePath("/ws", "/ws"); p != "" {
		t.Errorf("root note path = %q", p)
	}
}

func TestNotePathRejects(t *testing.T) {
	if _, err := DirFromNotePath("/ws", "a/../b"); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("dot-dot segment = %v, want ErrInvalidName", err)
	}
	if _, err := NotePath("/ws", "/ws/plain/a.md.d"); err == nil {
		t.Error("non-note segment should fail")
	}
}
