package tree

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/pathconv"
)

func dirToFile(dir string) string { return pathconv.DirToFile(dir) }

// Root materializes the workspace root note.
func (t *Tree) Root(ctx context.Context) (*models.Note, error) {
	return t.Materialize(ctx, t.root)
}

// Materialize builds the note at dirPath from the filesystem and the
// overlay, creating the directory first if it is missing.
func (t *Tree) Materialize(ctx context.Context, dirPath string) (*models.Note, error) {
	dir := filepath.Clean(dirPath)
	if !t.within(dir) {
		return nil, apperr.New(apperr.ErrNotFound, "materialize", dirPath, nil)
	}
	if err := t.store.MkdirAll(dir); err != nil {
		return nil, apperr.FS("materialize", dir, err)
	}
	return t.load(ctx, dir)
}

// load is Materialize without the mkdir: a missing directory is ErrNotFound.
func (t *Tree) load(ctx context.Context, dirPath string) (*models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Clean(dirPath)
	if !t.within(dir) {
		return nil, apperr.New(apperr.ErrNotFound, "load", dirPath, nil)
	}

	names, err := t.store.ListDirs(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.ErrNotFound, "load", dir, err)
		}
		return nil, apperr.FS("load", dir, err)
	}

	var onDisk []string
	for _, name := range names {
		if pathconv.IsChildDirName(name) {
			onDisk = append(onDisk, filepath.Join(dir, name))
		}
	}
	t.sortUnrecorded(onDisk)

	t.stateMu.RLock()
	entry, _ := t.cfg.Lookup(dir)
	t.stateMu.RUnlock()

	n := &models.Note{
		DirPath:  dir,
		Parent:   t.parentOf(dir),
		Children: mergeChildren(entry.Children, onDisk),
		Expanded: entry.Open,
	}
	if dir == t.root {
		n.Name = filepath.Base(dir)
	} else {
		n.Name = pathconv.DisplayName(dir)
		n.FilePath = pathconv.DirToFile(dir)
	}

	t.stateMu.Lock()
	t.table[dir] = n.Clone()
	t.stateMu.Unlock()
	return n, nil
}

// mergeChildren orders onDisk by recorded: recorded entries that still
// exist come first in recorded order, the rest follow in onDisk order.
// Recorded entries missing from disk are dropped.
func mergeChildren(recorded, onDisk []string) []string {
	present := make(map[string]bool, len(onDisk))
	for _, p := range onDisk {
		present[p] = true
	}
	out := make([]string, 0, len(onDisk))
	for _, p := range recorded {
		if present[p] {
			out = append(out, p)
			delete(present, p)
		}
	}
	for _, p := range onDisk {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}

// sortUnrecorded orders directory paths by the collation of their display
// names, falling back to byte order.
func (t *Tree) sortUnrecorded(paths []string) {
	t.collMu.Lock()
	defer t.collMu.Unlock()
	slices.SortStableFunc(paths, func(a, b string) int {
		if c := t.collator.CompareString(pathconv.DisplayName(a), pathconv.DisplayName(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

// ChildrenAsNotes materializes the immediate children of n in order.
// Children that vanished from disk since n was built are skipped.
func (t *Tree) ChildrenAsNotes(ctx context.Context, n *models.Note) ([]*models.Note, error) {
	out := make([]*models.Note, len(n.Children))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.limit)
	for i, child := range n.Children {
		g.Go(func() error {
			c, err := t.load(gctx, child)
			if errors.Is(err, apperr.ErrNotFound) {
				t.logger.Debug("child vanished", slog.String("path", child))
				return nil
			}
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(out, func(c *models.Note) bool { return c == nil }), nil
}

// Label is the display title of n.
func Label(n *models.Note) string { return n.Name }

// IsExpanded reports the persisted expansion state of n.
func IsExpanded(n *models.Note) bool { return n.Expanded }
