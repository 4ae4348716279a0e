// Package noteservice is the command layer over the note tree. Callers
// address notes by note path ("Projects/Arbor"); the service turns those
// into tree notes, bounds each call with a timeout and keeps the active
// note in step with structural changes.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/pathconv"
	"github.com/starford/arbor/internal/tree"
	"github.com/starford/arbor/internal/workspace"
)

// NoteView is the external representation of a note.
type NoteView struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	FilePath string   `json:"file_path,omitempty"`
	Expanded bool     `json:"expanded"`
	Children []string `json:"children"`
}

// OutlineNode is a note with its materialized descendants.
type OutlineNode struct {
	NoteView
	Nodes []*OutlineNode `json:"nodes,omitempty"`
}

// Move kinds accepted by ParseMove.
const (
	MoveShift  = "shift"
	MoveTop    = "top"
	MoveBottom = "bottom"
	MoveOut    = "out"
	MoveIn     = "in"
)

// Service coordinates tree mutations and workspace state.
type Service struct {
	ws      *workspace.Workspace
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a new note service. A non-positive timeout disables
// the per-call bound.
func NewService(ws *workspace.Workspace, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{ws: ws, timeout: timeout, logger: logger}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) tree() *tree.Tree { return s.ws.Tree() }

// ParseMove builds a tree move from its wire form.
func ParseMove(kind string, delta int, name string) (tree.Move, error) {
	switch kind {
	case MoveShift:
		return tree.Shift{Delta: delta}, nil
	case MoveTop:
		return tree.Top{}, nil
	case MoveBottom:
		return tree.Bottom{}, nil
	case MoveOut:
		return tree.Out{}, nil
	case MoveIn:
		return tree.In{Name: name}, nil
	}
	return nil, apperr.New(apperr.ErrInvalidRequest, "move", "", fmt.Errorf("unknown move kind %q", kind))
}

// lookup returns the existing note at notePath without creating anything.
func (s *Service) lookup(ctx context.Context, notePath string) (*models.Note, error) {
	t := s.tree()
	dir, err := pathconv.DirFromNotePath(t.RootPath(), notePath)
	if err != nil {
		return nil, err
	}
	if dir == t.RootPath() {
		return t.Root(ctx)
	}
	return t.Resolve(ctx, pathconv.DirToFile(dir))
}

func (s *Service) view(n *models.Note) (*NoteView, error) {
	root := s.tree().RootPath()
	p, err := pathconv.NotePath(root, n.DirPath)
	if err != nil {
		return nil, fmt.Errorf("noteservice: %w", err)
	}
	children := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		cp, err := pathconv.NotePath(root, c)
		if err != nil {
			return nil, fmt.Errorf("noteservice: %w", err)
		}
		children = append(children, cp)
	}
	return &NoteView{
		Path:     p,
		Name:     tree.Label(n),
		FilePath: n.FilePath,
		Expanded: tree.IsExpanded(n),
		Children: children,
	}, nil
}

// Get returns the note at notePath.
func (s *Service) Get(ctx context.Context, notePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	return s.view(n)
}

// Children returns the materialized children of the note at notePath.
func (s *Service) Children(ctx context.Context, notePath string) ([]*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	kids, err := s.tree().ChildrenAsNotes(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]*NoteView, 0, len(kids))
	for _, k := range kids {
		v, err := s.view(k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Outline returns the subtree at notePath down to depth levels below it.
// A negative depth is unbounded; collapsed notes are still descended.
func (s *Service) Outline(ctx context.Context, notePath string, depth int) (*OutlineNode, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	return s.outline(ctx, n, depth)
}

func (s *Service) outline(ctx context.Context, n *models.Note, depth int) (*OutlineNode, error) {
	v, err := s.view(n)
	if err != nil {
		return nil, err
	}
	node := &OutlineNode{NoteView: *v}
	if depth == 0 {
		return node, nil
	}
	kids, err := s.tree().ChildrenAsNotes(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		child, err := s.outline(ctx, k, depth-1)
		if err != nil {
			return nil, err
		}
		node.Nodes = append(node.Nodes, child)
	}
	return node, nil
}

// CreateChild creates name as the last child of the note at parentPath.
func (s *Service) CreateChild(ctx context.Context, parentPath, name string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	p, err := s.lookup(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	n, err := s.tree().CreateChild(ctx, p, name)
	if err != nil {
		return nil, err
	}
	return s.view(n)
}

// CreateSibling creates name right after the note at notePath.
func (s *Service) CreateSibling(ctx context.Context, notePath, name string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	created, err := s.tree().CreateSibling(ctx, n, name)
	if err != nil {
		return nil, err
	}
	return s.view(created)
}

// Rename renames the note at notePath.
func (s *Service) Rename(ctx context.Context, notePath, newName string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	renamed, err := s.tree().Rename(ctx, n, newName)
	if err != nil {
		return nil, err
	}
	s.followActive(ctx, n.DirPath, renamed.DirPath)
	return s.view(renamed)
}

// Move applies m to the note at notePath.
func (s *Service) Move(ctx context.Context, notePath string, m tree.Move) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	moved, err := s.tree().Move(ctx, n, m)
	if err != nil {
		return nil, err
	}
	if moved.DirPath != n.DirPath {
		s.followActive(ctx, n.DirPath, moved.DirPath)
	}
	return s.view(moved)
}

// Duplicate copies the note at notePath next to itself.
func (s *Service) Duplicate(ctx context.Context, notePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	dup, err := s.tree().Duplicate(ctx, n)
	if err != nil {
		return nil, err
	}
	return s.view(dup)
}

// Delete trashes the note at notePath and returns its former parent.
func (s *Service) Delete(ctx context.Context, notePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	parent, err := s.tree().Delete(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := s.ws.Removed(context.WithoutCancel(ctx), n.DirPath); err != nil {
		s.logger.Warn("clear active note failed", slog.String("error", err.Error()))
	}
	return s.view(parent)
}

// SetExpanded records the expansion state of the note at notePath.
func (s *Service) SetExpanded(ctx context.Context, notePath string, open bool) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	updated, err := s.tree().SetExpanded(ctx, n, open)
	if err != nil {
		return nil, err
	}
	return s.view(updated)
}

// Edit opens the note at notePath for editing, creating its file if needed,
// and makes it the active note.
func (s *Service) Edit(ctx context.Context, notePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.lookup(ctx, notePath)
	if err != nil {
		return nil, err
	}
	edited, err := s.tree().Edit(ctx, n)
	if err != nil {
		return nil, err
	}
	if _, err := s.ws.SetActiveFile(context.WithoutCancel(ctx), edited.FilePath); err != nil {
		return nil, err
	}
	return s.view(edited)
}

// Resolve returns the note owning the absolute file path filePath.
func (s *Service) Resolve(ctx context.Context, filePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.tree().Resolve(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return s.view(n)
}

// SetActive records filePath as the focused editor document.
func (s *Service) SetActive(ctx context.Context, filePath string) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.ws.SetActiveFile(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return s.view(n)
}

// Active returns the active note.
func (s *Service) Active(ctx context.Context) (*NoteView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.ws.ActiveNote(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(n)
}

// Check reports inconsistencies in the workspace.
func (s *Service) Check(ctx context.Context) ([]tree.Issue, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	issues, err := s.tree().Check(ctx)
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []tree.Issue{}
	}
	return issues, nil
}

// Compact drops orphaned overlay entries and returns their keys.
func (s *Service) Compact(ctx context.Context) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	removed, err := s.tree().CompactOverlay(ctx)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		removed = []string{}
	}
	return removed, nil
}

// followActive runs after a completed mutation, so it is not bound by the
// caller's deadline.
func (s *Service) followActive(ctx context.Context, oldDir, newDir string) {
	if err := s.ws.Relocated(context.WithoutCancel(ctx), oldDir, newDir); err != nil {
		s.logger.Warn("update active note failed",
			slog.String("from", oldDir),
			slog.String("error", err.Error()))
	}
}
