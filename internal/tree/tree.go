// Package tree is the note-tree engine. It keeps three sources of truth in
// step: the entries on disk, the persisted overlay of order and expansion,
// and the materialized notes handed to callers.
//
// Filesystem membership is always read fresh. The overlay only orders and
// filters what the filesystem reports; it never introduces entries. Every
// mutation holds the tree's write lock from its first check until the
// overlay has been saved.
package tree

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/overlay"
	"github.com/starford/arbor/internal/storage"
)

// Editor is the text editor collaborator.
type Editor interface {
	Open(ctx context.Context, filePath string) error
	Close(ctx context.Context, filePath string) error
}

// Event describes a completed change to the tree.
type Event struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.logger = l }
}

// WithTrash sets the trash collaborator used by Delete.
func WithTrash(tr storage.Trasher) Option {
	return func(t *Tree) { t.trash = tr }
}

// WithEditor sets the editor collaborator used by Edit and Delete.
func WithEditor(e Editor) Option {
	return func(t *Tree) { t.editor = e }
}

// WithNotify registers the refresh trigger fired after each mutation.
func WithNotify(fn func(Event)) Option {
	return func(t *Tree) { t.notify = fn }
}

// WithCollation sets the language used to order children the overlay has
// not recorded yet.
func WithCollation(tag language.Tag) Option {
	return func(t *Tree) { t.collator = collate.New(tag) }
}

// WithConcurrency bounds parallel child materialization.
func WithConcurrency(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.limit = n
		}
	}
}

// Tree owns the note table of one workspace.
type Tree struct {
	root     string
	store    storage.Provider
	overlays *overlay.Store
	trash    storage.Trasher
	editor   Editor
	notify   func(Event)
	logger   *slog.Logger
	limit    int

	collMu   sync.Mutex
	collator *collate.Collator

	// mu serializes mutations.
	mu sync.Mutex

	// stateMu guards cfg and table.
	stateMu sync.RWMutex
	cfg     *overlay.Config
	table   map[string]*models.Note
}

// New returns a Tree over store, using cfg as the loaded overlay and
// overlays to persist it.
func New(store storage.Provider, overlays *overlay.Store, cfg *overlay.Config, opts ...Option) *Tree {
	t := &Tree{
		root:     store.Root(),
		store:    store,
		overlays: overlays,
		cfg:      cfg,
		logger:   slog.Default(),
		limit:    8,
		table:    make(map[string]*models.Note),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.collator == nil {
		t.collator = collate.New(language.Und)
	}
	if t.trash == nil {
		if fsys, ok := store.(*storage.FS); ok {
			t.trash = storage.NewDirTrash(fsys)
		}
	}
	return t
}

// RootPath returns the absolute workspace root.
func (t *Tree) RootPath() string { return t.root }

// Lookup returns the last materialized copy of the note at dirPath without
// touching the filesystem.
func (t *Tree) Lookup(dirPath string) (*models.Note, bool) {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	n, ok := t.table[filepath.Clean(dirPath)]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Overlay returns a snapshot of the in-memory overlay.
func (t *Tree) Overlay() *overlay.Config {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()
	return t.cfg.Clone()
}

// parentOf returns the parent directory of dir, or "" for the root.
func (t *Tree) parentOf(dir string) string {
	if dir == t.root {
		return ""
	}
	return filepath.Dir(dir)
}

// within reports whether dir is the root or a directory below it.
func (t *Tree) within(dir string) bool {
	return dir == t.root || strings.HasPrefix(dir, t.root+string(filepath.Separator))
}

// commit records notes in the overlay and the table, then saves the
// overlay. A mutation is complete only once commit returns nil.
func (t *Tree) commit(op string, notes ...*models.Note) error {
	t.stateMu.Lock()
	for _, n := range notes {
		t.cfg.Upsert(n.DirPath, n.Expanded, n.Children)
		t.table[n.DirPath] = n.Clone()
	}
	err := t.overlays.Save(t.cfg)
	t.stateMu.Unlock()
	if err != nil {
		t.logger.Error("overlay save failed", slog.String("op", op), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// forget drops table entries at or below dir.
func (t *Tree) forget(dir string) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	for k := range t.table {
		if k == dir || strings.HasPrefix(k, dir+string(filepath.Separator)) {
			delete(t.table, k)
		}
	}
}

func (t *Tree) emit(op, path string) {
	t.logger.Debug("tree changed", slog.String("op", op), slog.String("path", path))
	if t.notify != nil {
		t.notify(Event{Op: op, Path: path})
	}
}

// begin marks the point of no return of a mutation and is called right
// before its first filesystem change. A done ctx aborts the mutation; the
// returned context ignores any later cancellation.
func begin(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return context.WithoutCancel(ctx), nil
}

// exists wraps the provider's Exists as a FilesystemError.
func (t *Tree) exists(op, path string) (bool, error) {
	ok, err := t.store.Exists(path)
	if err != nil {
		return false, apperr.FS(op, path, err)
	}
	return ok, nil
}

// ensureFree fails with ErrNameCollision if either half of the note at dir
// is already on disk.
func (t *Tree) ensureFree(op, dir string) error {
	for _, p := range []string{dir, dirToFile(dir)} {
		taken, err := t.exists(op, p)
		if err != nil {
			return err
		}
		if taken {
			return apperr.New(apperr.ErrNameCollision, op, p, nil)
		}
	}
	return nil
}
