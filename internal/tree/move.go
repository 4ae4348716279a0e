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
)

// Move is one of Shift, Top, Bottom, Out or In.
type Move interface {
	isMove()
}

// Shift moves a note by Delta positions among its siblings. A target
// outside the sibling range leaves the order unchanged.
type Shift struct{ Delta int }

// Top moves a note to the first position among its siblings.
type Top struct{}

// Bottom moves a note to the last position among its siblings.
type Bottom struct{}

// Out re-parents a note to its grandparent, right before its old parent.
// Notes whose parent is the root stay where they are.
type Out struct{}

// In creates a sibling called Name right after the note and makes the note
// its only child.
type In struct{ Name string }

func (Shift) isMove()  {}
func (Top) isMove()    {}
func (Bottom) isMove() {}
func (Out) isMove()    {}
func (In) isMove()     {}

// Move applies m to note and returns the note at its resulting location.
func (t *Tree) Move(ctx context.Context, note *models.Note, m Move) (*models.Note, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	const op = "move"

	dir := filepath.Clean(note.DirPath)
	p, idx, err := t.parentFor(ctx, op, dir)
	if err != nil {
		return nil, err
	}

	var target int
	switch m := m.(type) {
	case Shift:
		target = idx + m.Delta
	case Top:
		target = 0
	case Bottom:
		target = len(p.Children) - 1
	case Out:
		return t.moveOut(ctx, dir, p, idx)
	case In:
		return t.moveIn(ctx, dir, m.Name)
	default:
		return nil, fmt.Errorf("tree: move: unsupported move %T", m)
	}

	if target < 0 || target >= len(p.Children) || target == idx {
		return t.load(ctx, dir)
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	p.Children = slices.Delete(p.Children, idx, idx+1)
	p.Children = slices.Insert(p.Children, target, dir)
	if err := t.commit(op, p); err != nil {
		return nil, err
	}
	t.logger.Debug("note reordered", slog.String("path", dir), slog.Int("from", idx), slog.Int("to", target))
	t.emit(op, dir)
	return t.load(ctx, dir)
}

func (t *Tree) moveOut(ctx context.Context, dir string, p *models.Note, idx int) (*models.Note, error) {
	const op = "move out"

	if p.DirPath == t.root {
		return t.load(ctx, dir)
	}
	g, pIdx, err := t.parentFor(ctx, op, p.DirPath)
	if err != nil {
		return nil, err
	}
	newDir := filepath.Join(g.DirPath, filepath.Base(dir))
	if err := t.ensureFree(op, newDir); err != nil {
		return nil, err
	}
	if ctx, err = begin(ctx); err != nil {
		return nil, err
	}
	if err := t.relocate(op, dir, newDir); err != nil {
		return nil, err
	}

	p.Children = slices.Delete(p.Children, idx, idx+1)
	g.Children = slices.Insert(g.Children, pIdx, newDir)
	t.rekey(dir, newDir)
	if err := t.commit(op, p, g); err != nil {
		return nil, err
	}
	t.logger.Info("note moved out", slog.String("from", dir), slog.String("to", newDir))
	t.emit(op, newDir)
	return t.load(ctx, newDir)
}

func (t *Tree) moveIn(ctx context.Context, dir, name string) (*models.Note, error) {
	const op = "move in"

	// createSibling checks ctx before creating the wrapper; the relocation
	// into it must then run to completion.
	wrapper, err := t.createSibling(ctx, dir, name)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	newDir := filepath.Join(wrapper.DirPath, filepath.Base(dir))
	if err := t.relocate(op, dir, newDir); err != nil {
		return nil, t.undoWrapper(ctx, op, wrapper, err)
	}

	// The parent reloads without dir since it is gone from disk.
	p, err := t.load(ctx, t.parentOf(dir))
	if err != nil {
		return nil, err
	}
	wrapper.Children = []string{newDir}
	wrapper.Expanded = true
	t.rekey(dir, newDir)
	if err := t.commit(op, p, wrapper); err != nil {
		return nil, err
	}
	t.logger.Info("note moved in", slog.String("from", dir), slog.String("to", newDir))
	t.emit(op, newDir)
	return t.load(ctx, newDir)
}

// undoWrapper removes the still empty wrapper created by moveIn after the
// relocation into it failed.
func (t *Tree) undoWrapper(ctx context.Context, op string, wrapper *models.Note, cause error) error {
	if apperr.IsInconsistent(cause) {
		return cause
	}
	if err := t.store.Remove(wrapper.DirPath); err != nil {
		return apperr.New(apperr.ErrInconsistentState, op, wrapper.DirPath, errors.Join(cause, err))
	}
	p, err := t.load(ctx, wrapper.Parent)
	if err != nil {
		return errors.Join(cause, err)
	}
	t.forget(wrapper.DirPath)
	if err := t.commit(op, p); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
