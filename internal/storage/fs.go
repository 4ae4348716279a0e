package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to workspace directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace root.
func (f *FS) Root() string { return f.root }

// safePath resolves p (absolute, or relative to the root) and rejects any
// result that escapes the root (directory traversal).
func (f *FS) safePath(p string) (string, error) {
	if p == "" {
		return f.root, nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.root, p)
	}
	abs := filepath.Clean(p)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", p)
	}
	return abs, nil
}

// MkdirAll creates dir and any missing parents.
func (f *FS) MkdirAll(dir string) error {
	abs, err := f.safePath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return nil
}

// ListDirs returns the names of the subdirectories of dir. Symlinks that
// resolve to directories count as directories.
func (f *FS) ListDirs(dir string) ([]string, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
			continue
		}
		if e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		info, err := os.Stat(filepath.Join(abs, e.Name()))
		if err == nil && info.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// ListFiles returns the names of the non-directory entries of dir.
func (f *FS) ListFiles(dir string) ([]string, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Exists reports whether anything is at path.
func (f *FS) Exists(path string) (bool, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Lstat(abs)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
}

// Rename moves oldPath to newPath, refusing to replace an existing entry.
func (f *FS) Rename(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if taken, err := f.Exists(absNew); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("storage: rename to %s: %w", newPath, fs.ErrExist)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Copy recursively copies src to dst, preserving permissions and symlinks.
func (f *FS) Copy(src, dst string) error {
	absSrc, err := f.safePath(src)
	if err != nil {
		return err
	}
	absDst, err := f.safePath(dst)
	if err != nil {
		return err
	}
	if taken, err := f.Exists(absDst); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("storage: copy to %s: %w", dst, fs.ErrExist)
	}
	err = filepath.WalkDir(absSrc, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(absSrc, p)
		if err != nil {
			return err
		}
		target := filepath.Join(absDst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(p, target, info.Mode().Perm())
		}
	})
	if err != nil {
		return fmt.Errorf("storage: copy %s: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// EnsureFile creates an empty file at path unless one already exists.
func (f *FS) EnsureFile(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("storage: ensure %s: %w", path, err)
	}
	return file.Close()
}

// Remove deletes a file or an empty directory.
func (f *FS) Remove(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: refusing to remove workspace root")
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// TmpPrefix starts the name of every temp file written by WriteFileAtomic.
const TmpPrefix = ".arbor-tmp-"

// WriteFileAtomic writes content to path: tmp file → fsync → rename.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, TmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
