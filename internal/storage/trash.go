package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TrashDirName is the directory under the workspace root that holds trashed notes.
const TrashDirName = ".arbor-trash"

// DirTrash implements Trasher by moving paths into a per-item slot under
// the workspace trash directory, keeping their original base name.
type DirTrash struct {
	fs  *FS
	dir string
}

var _ Trasher = (*DirTrash)(nil)

// NewDirTrash returns a Trasher that keeps trashed items under root/.arbor-trash.
func NewDirTrash(f *FS) *DirTrash {
	return &DirTrash{fs: f, dir: filepath.Join(f.root, TrashDirName)}
}

// Dir returns the absolute trash directory.
func (t *DirTrash) Dir() string { return t.dir }

// Trash moves path to <trash>/<uuid>/<base>. Moving it back restores the
// item.
func (t *DirTrash) Trash(path string) error {
	abs, err := t.fs.safePath(path)
	if err != nil {
		return err
	}
	if abs == t.fs.root {
		return fmt.Errorf("storage: refusing to trash workspace root")
	}
	slot := filepath.Join(t.dir, uuid.NewString())
	if err := os.MkdirAll(slot, 0o755); err != nil {
		return fmt.Errorf("storage: trash slot: %w", err)
	}
	if err := os.Rename(abs, filepath.Join(slot, filepath.Base(abs))); err != nil {
		_ = os.Remove(slot)
		return fmt.Errorf("storage: trash %s: %w", path, err)
	}
	return nil
}
