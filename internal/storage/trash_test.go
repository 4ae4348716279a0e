package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirTrashMovesAndKeepsName(t *testing.T) {
	s := tempWorkspace(t)
	tr := NewDirTrash(s)
	root := s.Root()
	writeFile(t, s, "gone.md.d/child.md", []byte("kept"))

	if err := tr.Trash(filepath.Join(root, "gone.md.d")); err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if ok, _ := s.Exists(filepath.Join(root, "gone.md.d")); ok {
		t.Error("trashed dir still in place")
	}

	matches, _ := filepath.Glob(filepath.Join(tr.Dir(), "*", "gone.md.d", "child.md"))
	if len(matches) != 1 {
		t.Fatalf("trashed content not recoverable: %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if string(data) != "kept" {
		t.Errorf("trashed content = %q", data)
	}
}

func TestDirTrashSameNameTwice(t *testing.T) {
	s := tempWorkspace(t)
	tr := NewDirTrash(s)
	for i := 0; i < 2; i++ {
		writeFile(t, s, "dup.md", []byte("x"))
		if err := tr.Trash(filepath.Join(s.Root(), "dup.md")); err != nil {
			t.Fatalf("Trash #%d: %v", i, err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(tr.Dir(), "*", "dup.md"))
	if len(matches) != 2 {
		t.Errorf("expected 2 trash slots, got %v", matches)
	}
}

func TestDirTrashRejectsRoot(t *testing.T) {
	s := tempWorkspace(t)
	if err := NewDirTrash(s).Trash(s.Root()); err == nil {
		t.Error("trashing the root must fail")
	}
}
