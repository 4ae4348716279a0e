// Package testutil provides shared test helpers for setting up workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/arbor/internal/storage"
)

// Workspace creates a temporary workspace directory with a storage.FS.
func Workspace(t *testing.T) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// Notes creates note directories under root. Each rel is a slash separated
// chain of note names, e.g. "A/B" creates A.md.d/B.md.d.
func Notes(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		if err := os.MkdirAll(NoteDir(root, rel), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

// NoteDir returns the children directory of the note chain rel under root.
func NoteDir(root, rel string) string {
	dir := root
	for _, name := range strings.Split(rel, "/") {
		dir = filepath.Join(dir, name+".md.d")
	}
	return dir
}

// NoteFile returns the content file of the note chain rel under root.
func NoteFile(root, rel string) string {
	dir := NoteDir(root, rel)
	return dir[:len(dir)-len(".d")]
}

// WriteNote writes the content file of the note chain rel.
func WriteNote(t *testing.T, root, rel, content string) {
	t.Helper()
	if err := os.WriteFile(NoteFile(root, rel), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
