package tree

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/pathconv"
)

// Issue kinds reported by Check.
const (
	// IssueOrphanFile is a content file without its children directory,
	// typically left by an interrupted rename.
	IssueOrphanFile = "orphan_file"
	// IssueOrphanEntry is an overlay entry whose directory no longer exists.
	IssueOrphanEntry = "orphan_entry"
)

// Issue is one inconsistency found by Check.
type Issue struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Check walks the whole tree and reports inconsistencies. It repairs nothing.
func (t *Tree) Check(ctx context.Context) ([]Issue, error) {
	var issues []Issue

	queue := []string{t.root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		n, err := t.load(ctx, dir)
		if err != nil {
			return nil, err
		}
		queue = append(queue, n.Children...)

		files, err := t.store.ListFiles(dir)
		if err != nil {
			return nil, apperr.FS("check", dir, err)
		}
		for _, name := range files {
			if !strings.HasSuffix(name, pathconv.FileExt) || name == pathconv.FileExt {
				continue
			}
			file := filepath.Join(dir, name)
			if n.IndexOf(pathconv.FileToDir(file)) < 0 {
				issues = append(issues, Issue{Kind: IssueOrphanFile, Path: file})
			}
		}
	}

	for _, dir := range t.Overlay().Compact(func(p string) bool { return t.dirExists(p) }) {
		issues = append(issues, Issue{Kind: IssueOrphanEntry, Path: dir})
	}
	return issues, nil
}

// CompactOverlay drops overlay entries whose directory no longer exists
// and saves the overlay. It returns the dropped keys.
func (t *Tree) CompactOverlay(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.stateMu.Lock()
	removed := t.cfg.Compact(func(p string) bool { return t.dirExists(p) })
	err := t.overlays.Save(t.cfg)
	t.stateMu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		t.logger.Info("overlay compacted", slog.Int("removed", len(removed)))
		t.emit("compact", t.root)
	}
	return removed, nil
}

func (t *Tree) dirExists(dir string) bool {
	if !t.within(dir) {
		return false
	}
	ok, err := t.store.Exists(dir)
	return err == nil && ok
}
