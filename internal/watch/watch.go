// Package watch reports filesystem changes made to a workspace by anything
// other than the tree engine, such as a shell or a sync client.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/arbor/internal/overlay"
	"github.com/starford/arbor/internal/pathconv"
	"github.com/starford/arbor/internal/storage"
)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

// Callback receives the sorted, de-duplicated paths that changed during one
// debounce window.
type Callback func(paths []string)

// Watch watches root recursively until ctx is cancelled. Relevant events are
// collected and delivered to cb once no further event arrived for debounce.
//
// Only note files and note directories are relevant. The overlay sidecar,
// atomic-write temp files and the trash are ignored.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := make(map[string]struct{})

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			logger.Debug("watcher: flush", slog.Int("paths", len(paths)))
			if cb != nil {
				cb(paths)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored(root, ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			if !relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether path names a note file or note directory.
func relevant(path string) bool {
	base := filepath.Base(path)
	return pathconv.IsChildDirName(base) ||
		(strings.HasSuffix(base, pathconv.FileExt) && base != pathconv.FileExt)
}

func ignored(root, path string) bool {
	base := filepath.Base(path)
	if base == overlay.FileName || strings.HasPrefix(base, storage.TmpPrefix) {
		return true
	}
	trash := filepath.Join(root, storage.TrashDirName)
	return path == trash || pathconv.IsUnder(path, trash)
}

// addDirsRecursive adds dir and all its subdirectories, except the trash,
// to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == storage.TrashDirName {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
