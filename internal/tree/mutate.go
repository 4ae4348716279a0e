package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/pathconv"
)

// parentFor loads the parent of dir and locates dir among its children.
func (t *Tree) parentFor(ctx context.Context, op, dir string) (*models.Note, int, error) {
	if dir == t.root {
		return nil, -1, apperr.New(apperr.ErrNoParent, op, dir, nil)
	}
	if !t.within(dir) {
		return nil, -1, apperr.New(apperr.ErrNotFound, op, dir, nil)
	}
	p, err := t.load(ctx, t.parentOf(dir))
	if err != nil {
		return nil, -1, err
	}
	idx := p.IndexOf(dir)
	if idx < 0 {
		return nil, -1, apperr.New(apperr.ErrNotFound, op, dir, errors.New("not among parent's children"))
	}
	return p, idx, nil
}

// CreateChild creates a note called name as the last child of parent.
func (t *Tree) CreateChild(ctx context.Context, parent *models.Note, name string) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "create child"

	dir, err := pathconv.ChildDir(parent.DirPath, name)
	if err != nil {
		return nil, err
	}
	p, err := t.load(ctx, parent.DirPath)
	if err != nil {
		return nil, err
	}
	if err := t.ensureFree(op, dir); err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.store.MkdirAll(dir); err != nil {
		return nil, apperr.FS(op, dir, err)
	}

	p.Children = append(p.Children, dir)
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Info("note created", slog.String("path", dir))
	t.emit(op, dir)
	return t.load(ctx, dir)
}

// CreateSibling creates a note called name directly after note in its parent.
func (t *Tree) CreateSibling(ctx context.Context, note *models.Note, name string) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.createSibling(ctx, note.DirPath, name)
}

func (t *Tree) createSibling(ctx context.Context, dir, name string) (*models.Note, error) {
	const op = "create sibling"

	p, idx, err := t.parentFor(ctx, op, filepath.Clean(dir))
	if err != nil {
		return nil, err
	}
	sibling, err := pathconv.ChildDir(p.DirPath, name)
	if err != nil {
		return nil, err
	}
	if err := t.ensureFree(op, sibling); err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.store.MkdirAll(sibling); err != nil {
		return nil, apperr.FS(op, sibling, err)
	}

	p.Children = slices.Insert(p.Children, idx+1, sibling)
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Info("note created", slog.String("path", sibling))
	t.emit(op, sibling)
	return t.load(ctx, sibling)
}

// Rename gives note a new name under the same parent, keeping its position.
func (t *Tree) Rename(ctx context.Context, note *models.Note, newName string) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "rename"

	oldDir := filepath.Clean(note.DirPath)
	p, idx, err := t.parentFor(ctx, op, oldDir)
	if err != nil {
		return nil, err
	}
	newDir, err := pathconv.ChildDir(p.DirPath, newName)
	if err != nil {
		return nil, err
	}
	if newDir == oldDir {
		return t.load(ctx, oldDir)
	}
	if err := t.ensureFree(op, newDir); err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.relocate(op, oldDir, newDir); err != nil {
		return nil, err
	}

	p.Children[idx] = newDir
	t.rekey(oldDir, newDir)
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Info("note renamed", slog.String("from", oldDir), slog.String("to", newDir))
	t.emit(op, newDir)
	return t.load(ctx, newDir)
}

// relocate moves a note's directory and then its content file. If the file
// move fails the directory move is reversed; if that also fails the tree is
// left half moved and ErrInconsistentState is returned.
func (t *Tree) relocate(op, oldDir, newDir string) error {
	oldFile, newFile := dirToFile(oldDir), dirToFile(newDir)
	hasFile, err := t.exists(op, oldFile)
	if err != nil {
		return err
	}

	if err := t.store.Rename(oldDir, newDir); err != nil {
		return apperr.FS(op, oldDir, err)
	}
	if !hasFile {
		return nil
	}
	if err := t.store.Rename(oldFile, newFile); err != nil {
		if rbErr := t.store.Rename(newDir, oldDir); rbErr != nil {
			t.logger.Error("rollback failed, tree is inconsistent",
				slog.String("dir", newDir),
				slog.String("file", oldFile),
				slog.String("error", rbErr.Error()))
			return apperr.New(apperr.ErrInconsistentState, op, newDir, errors.Join(err, rbErr))
		}
		t.logger.Warn("file move failed, directory move rolled back",
			slog.String("file", oldFile), slog.String("error", err.Error()))
		return apperr.FS(op, oldFile, err)
	}
	return nil
}

// rekey moves overlay entries and table rows from oldDir to newDir.
func (t *Tree) rekey(oldDir, newDir string) {
	t.stateMu.Lock()
	t.cfg.Rekey(oldDir, newDir)
	t.stateMu.Unlock()
	t.forget(oldDir)
}

// Duplicate copies note and its whole subtree to the first free name among
// "name", "name-1", "name-2", ... and places the copy right after note.
func (t *Tree) Duplicate(ctx context.Context, note *models.Note) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "duplicate"

	srcDir := filepath.Clean(note.DirPath)
	p, idx, err := t.parentFor(ctx, op, srcDir)
	if err != nil {
		return nil, err
	}
	dstDir, err := t.freeName(op, p.DirPath, pathconv.DisplayName(srcDir))
	if err != nil {
		return nil, err
	}

	srcFile, dstFile := dirToFile(srcDir), dirToFile(dstDir)
	hasFile, err := t.exists(op, srcFile)
	if err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.store.Copy(srcDir, dstDir); err != nil {
		return nil, apperr.FS(op, srcDir, err)
	}
	if hasFile {
		if err := t.store.Copy(srcFile, dstFile); err != nil {
			if rbErr := t.discard(dstDir); rbErr != nil {
				return nil, apperr.New(apperr.ErrInconsistentState, op, dstDir, errors.Join(err, rbErr))
			}
			return nil, apperr.FS(op, srcFile, err)
		}
	}

	p.Children = slices.Insert(p.Children, idx+1, dstDir)
	t.stateMu.Lock()
	t.cfg.CopyPrefix(srcDir, dstDir)
	t.stateMu.Unlock()
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Info("note duplicated", slog.String("from", srcDir), slog.String("to", dstDir))
	t.emit(op, dstDir)
	return t.load(ctx, dstDir)
}

// freeName probes name, name-1, name-2, ... under parentDir and returns the
// first directory whose note file and directory are both free.
func (t *Tree) freeName(op, parentDir, name string) (string, error) {
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", name, i)
		}
		dir, err := pathconv.ChildDir(parentDir, candidate)
		if err != nil {
			return "", err
		}
		err = t.ensureFree(op, dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, apperr.ErrNameCollision) {
			return "", err
		}
	}
}

// discard undoes a partial copy by trashing it.
func (t *Tree) discard(path string) error {
	if t.trash == nil {
		return errors.New("no trash configured")
	}
	return t.trash.Trash(path)
}

// Delete moves note's file and directory to the trash and removes it from
// its parent's children. Overlay entries of its descendants are kept. The
// updated parent is returned.
func (t *Tree) Delete(ctx context.Context, note *models.Note) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "delete"

	if t.trash == nil {
		return nil, fmt.Errorf("tree: delete: no trash configured")
	}
	dir := filepath.Clean(note.DirPath)
	p, idx, err := t.parentFor(ctx, op, dir)
	if err != nil {
		return nil, err
	}
	file := dirToFile(dir)
	hasFile, err := t.exists(op, file)
	if err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}

	if hasFile && t.editor != nil {
		if err := t.editor.Close(ctx, file); err != nil {
			return nil, fmt.Errorf("tree: close editor: %w", err)
		}
	}
	if hasFile {
		if err := t.trash.Trash(file); err != nil {
			return nil, apperr.FS(op, file, err)
		}
	}
	if err := t.trash.Trash(dir); err != nil {
		if hasFile {
			t.logger.Error("directory trash failed after file was trashed",
				slog.String("dir", dir), slog.String("error", err.Error()))
			return nil, apperr.New(apperr.ErrInconsistentState, op, dir, err)
		}
		return nil, apperr.FS(op, dir, err)
	}

	p.Children = slices.Delete(p.Children, idx, idx+1)
	t.forget(dir)
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Info("note deleted", slog.String("path", dir))
	t.emit(op, dir)
	return p, nil
}

// SetExpanded records whether note is shown expanded.
func (t *Tree) SetExpanded(ctx context.Context, note *models.Note, open bool) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "expand"

	n, err := t.load(ctx, note.DirPath)
	if err != nil {
		return nil, err
	}
	if _, err := begin(ctx); err != nil {
		return nil, err
	}
	n.Expanded = open
	if err := t.commit(op, n); err != nil {
		return nil, err
	}
	t.emit(op, n.DirPath)
	return n, nil
}

// Edit creates note's content file if needed, expands every ancestor so the
// note is visible, and asks the editor to open the file.
func (t *Tree) Edit(ctx context.Context, note *models.Note) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "edit"

	n, err := t.load(ctx, note.DirPath)
	if err != nil {
		return nil, err
	}
	if n.FilePath == "" {
		return nil, apperr.New(apperr.ErrNotFound, op, n.DirPath, errors.New("the root has no content file"))
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.store.EnsureFile(n.FilePath); err != nil {
		return nil, apperr.FS(op, n.FilePath, err)
	}

	var ancestors []*models.Note
	for dir := n.Parent; dir != ""; dir = t.parentOf(dir) {
		a, err := t.load(ctx, dir)
		if err != nil {
			return nil, err
		}
		a.Expanded = true
		ancestors = append(ancestors, a)
	}
	if err := t.commit(op, ancestors...); err != nil {
		return nil, err
	}
	if t.editor != nil {
		if err := t.editor.Open(ctx, n.FilePath); err != nil {
			return nil, fmt.Errorf("tree: open editor: %w", err)
		}
	}
	t.emit(op, n.DirPath)
	return n, nil
}
