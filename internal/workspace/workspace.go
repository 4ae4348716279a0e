// Package workspace binds a note tree to its persisted workspace state.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/pathconv"
	"github.com/starford/arbor/internal/state"
	"github.com/starford/arbor/internal/tree"
)

// Workspace is the explicit context passed to every command: the tree of
// one root plus its key/value state.
type Workspace struct {
	tree   *tree.Tree
	state  state.Store
	logger *slog.Logger
}

// New returns a Workspace over t, persisting state in st.
func New(t *tree.Tree, st state.Store, logger *slog.Logger) *Workspace {
	return &Workspace{tree: t, state: st, logger: logger}
}

// Tree returns the workspace's note tree.
func (w *Workspace) Tree() *tree.Tree { return w.tree }

// Root materializes the root note.
func (w *Workspace) Root(ctx context.Context) (*models.Note, error) {
	return w.tree.Root(ctx)
}

// SetActiveFile records filePath as the document focused in the editor and
// returns the note owning it. Paths that are not notes are not recorded.
func (w *Workspace) SetActiveFile(ctx context.Context, filePath string) (*models.Note, error) {
	n, err := w.tree.Resolve(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if err := w.state.Set(ctx, state.ActiveNoteKey, n.FilePath); err != nil {
		return nil, fmt.Errorf("workspace: set active: %w", err)
	}
	w.logger.Debug("active note changed", slog.String("path", n.FilePath))
	return n, nil
}

// ActiveNote re-resolves the persisted active note.
func (w *Workspace) ActiveNote(ctx context.Context) (*models.Note, error) {
	p, err := w.state.Get(ctx, state.ActiveNoteKey)
	if err != nil {
		return nil, fmt.Errorf("workspace: get active: %w", err)
	}
	if p == "" {
		return nil, apperr.New(apperr.ErrNotFound, "active note", "", errors.New("no active note"))
	}
	return w.tree.Resolve(ctx, p)
}

// ClearActive forgets the active note.
func (w *Workspace) ClearActive(ctx context.Context) error {
	if err := w.state.Set(ctx, state.ActiveNoteKey, ""); err != nil {
		return fmt.Errorf("workspace: clear active: %w", err)
	}
	return nil
}

// Relocated keeps the active note pointing at the same note after its
// directory, or one of its ancestors, moved from oldDir to newDir.
func (w *Workspace) Relocated(ctx context.Context, oldDir, newDir string) error {
	p, err := w.state.Get(ctx, state.ActiveNoteKey)
	if err != nil || p == "" {
		return err
	}
	oldFile := pathconv.DirToFile(oldDir)
	var next string
	switch {
	case p == oldFile:
		next = pathconv.DirToFile(newDir)
	case pathconv.IsUnder(p, oldDir):
		rel, err := filepath.Rel(oldDir, p)
		if err != nil {
			return fmt.Errorf("workspace: relocate active: %w", err)
		}
		next = filepath.Join(newDir, rel)
	default:
		return nil
	}
	if err := w.state.Set(ctx, state.ActiveNoteKey, next); err != nil {
		return fmt.Errorf("workspace: relocate active: %w", err)
	}
	w.logger.Debug("active note followed move", slog.String("from", p), slog.String("to", next))
	return nil
}

// Removed clears the active note if it was dir or lived below it.
func (w *Workspace) Removed(ctx context.Context, dir string) error {
	p, err := w.state.Get(ctx, state.ActiveNoteKey)
	if err != nil || p == "" {
		return err
	}
	if p == pathconv.DirToFile(dir) || pathconv.IsUnder(p, dir) {
		return w.ClearActive(ctx)
	}
	return nil
}
