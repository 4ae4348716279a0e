package tree

import (
	"context"
	"path/filepath"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/pathconv"
)

// Resolve finds the note whose content file is filePath by descending from
// the root one level at a time. Nothing is cached between calls.
func (t *Tree) Resolve(ctx context.Context, filePath string) (*models.Note, error) {
	const op = "resolve"

	target := filepath.Clean(filePath)
	if !filepath.IsAbs(target) || !pathconv.IsUnder(target, t.root) {
		return nil, apperr.New(apperr.ErrNotFound, op, filePath, nil)
	}

	cur, err := t.load(ctx, t.root)
	if err != nil {
		return nil, err
	}
	for {
		next := ""
		for _, child := range cur.Children {
			if dirToFile(child) == target {
				return t.load(ctx, child)
			}
			if pathconv.IsUnder(target, child) {
				next = child
				break
			}
		}
		if next == "" {
			return nil, apperr.New(apperr.ErrNotFound, op, filePath, nil)
		}
		if cur, err = t.load(ctx, next); err != nil {
			return nil, err
		}
	}
}
