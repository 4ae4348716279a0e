// Package overlay persists the custom child order and expansion state of
// every note directory in a JSON sidecar at the workspace root.
package overlay

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/storage"
)

// FileName is the sidecar file name at the workspace root.
const FileName = "vscode-tree.json"

// Entry is the recorded state of one directory.
type Entry struct {
	Open     bool     `json:"open"`
	Children []string `json:"children"`
}

// Config is the whole sidecar document, keyed by absolute directory path.
type Config struct {
	Sort map[string]Entry `json:"sort"`
}

// New returns an empty Config.
func New() *Config {
	return &Config{Sort: map[string]Entry{}}
}

// Lookup returns the entry recorded for dirPath.
func (c *Config) Lookup(dirPath string) (Entry, bool) {
	e, ok := c.Sort[dirPath]
	return e, ok
}

// Upsert replaces or creates the entry for dirPath.
func (c *Config) Upsert(dirPath string, open bool, children []string) {
	c.Sort[dirPath] = Entry{Open: open, Children: append([]string{}, children...)}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := &Config{Sort: make(map[string]Entry, len(c.Sort))}
	for k, e := range c.Sort {
		out.Sort[k] = Entry{Open: e.Open, Children: slices.Clone(e.Children)}
	}
	return out
}

// Rekey rewrites every key and child path at or below oldDir to live under
// newDir instead. Used when a note directory is renamed or moved. Stale
// entries already recorded at or below newDir are dropped first.
func (c *Config) Rekey(oldDir, newDir string) {
	c.dropPrefix(newDir)
	next := make(map[string]Entry, len(c.Sort))
	for k, e := range c.Sort {
		children := make([]string, len(e.Children))
		for i, ch := range e.Children {
			children[i] = swapPrefix(ch, oldDir, newDir)
		}
		next[swapPrefix(k, oldDir, newDir)] = Entry{Open: e.Open, Children: children}
	}
	c.Sort = next
}

// CopyPrefix duplicates the entries at or below srcDir under dstDir,
// replacing any stale entries already recorded there.
func (c *Config) CopyPrefix(srcDir, dstDir string) {
	c.dropPrefix(dstDir)
	var keys []string
	for k := range c.Sort {
		if hasPrefix(k, srcDir) {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		e := c.Sort[k]
		children := make([]string, len(e.Children))
		for i, ch := range e.Children {
			children[i] = swapPrefix(ch, srcDir, dstDir)
		}
		c.Sort[swapPrefix(k, srcDir, dstDir)] = Entry{Open: e.Open, Children: children}
	}
}

// dropPrefix removes the entries at or below dir.
func (c *Config) dropPrefix(dir string) {
	for k := range c.Sort {
		if hasPrefix(k, dir) {
			delete(c.Sort, k)
		}
	}
}

// Compact drops entries for which exists reports false and returns the
// removed keys.
func (c *Config) Compact(exists func(dirPath string) bool) []string {
	var removed []string
	for k := range c.Sort {
		if !exists(k) {
			removed = append(removed, k)
		}
	}
	slices.Sort(removed)
	for _, k := range removed {
		delete(c.Sort, k)
	}
	return removed
}

func digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hasPrefix(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+string(filepath.Separator))
}

func swapPrefix(p, oldDir, newDir string) string {
	if !hasPrefix(p, oldDir) {
		return p
	}
	return newDir + p[len(oldDir):]
}

// Store loads and saves the sidecar of one workspace root.
type Store struct {
	root string

	mu      sync.Mutex
	lastSum string
}

// NewStore returns a Store for the sidecar under root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path returns the absolute sidecar path.
func (s *Store) Path() string {
	return filepath.Join(s.root, FileName)
}

// Load reads the sidecar. A missing sidecar is created empty. A sidecar
// that cannot be parsed yields ErrConfigCorrupt and is left untouched.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		cfg := New()
		if err := s.Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, apperr.FS("overlay: load", s.Path(), err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, apperr.New(apperr.ErrConfigCorrupt, "overlay: load", s.Path(), err)
	}
	if cfg.Sort == nil {
		cfg.Sort = map[string]Entry{}
	}
	s.mu.Lock()
	s.lastSum = digest(data)
	s.mu.Unlock()
	return &cfg, nil
}

// Save atomically writes cfg. Writes are skipped when the serialized
// document is identical to the last one loaded or saved.
func (s *Store) Save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("overlay: encode: %w", err)
	}
	data = append(data, '\n')
	sum := digest(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.lastSum {
		return nil
	}
	if err := storage.WriteFileAtomic(s.Path(), data); err != nil {
		return apperr.FS("overlay: save", s.Path(), err)
	}
	s.lastSum = sum
	return nil
}

// Reset moves an unreadable sidecar aside to "<name>.corrupt" and starts
// over with an empty Config.
func (s *Store) Reset() (*Config, error) {
	if err := os.Rename(s.Path(), s.Path()+".corrupt"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.FS("overlay: reset", s.Path(), err)
	}
	s.mu.Lock()
	s.lastSum = ""
	s.mu.Unlock()
	cfg := New()
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
