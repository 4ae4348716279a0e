// Package storage defines the workspace file-system abstraction the note
// tree is built on. All paths are absolute and confined to the workspace root.
package storage

// Provider is the interface for workspace file operations.
type Provider interface {
	// Root returns the absolute workspace root.
	Root() string
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
	// ListDirs returns the names of the subdirectories of dir in listing order.
	ListDirs(dir string) ([]string, error)
	// ListFiles returns the names of the non-directory entries of dir.
	ListFiles(dir string) ([]string, error)
	// Exists reports whether anything (file, directory or link) is at path.
	Exists(path string) (bool, error)
	// Rename moves oldPath to newPath. It fails with fs.ErrExist if newPath is taken.
	Rename(oldPath, newPath string) error
	// Copy recursively copies src to dst. It fails with fs.ErrExist if dst is taken.
	Copy(src, dst string) error
	// EnsureFile creates an empty file at path unless one already exists.
	EnsureFile(path string) error
	// Remove deletes a file or an empty directory.
	Remove(path string) error
}

// Trasher moves paths somewhere they can be recovered from. It never erases.
type Trasher interface {
	Trash(path string) error
}
