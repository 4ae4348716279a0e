// Package models defines the domain types for arbor.
package models

import "slices"

// Note is a materialized node of the note tree. Its identity is DirPath.
// Parent and Children hold directory paths rather than pointers so notes
// can be re-derived independently of each other.
type Note struct {
	Name     string   `json:"name"`
	DirPath  string   `json:"dir_path"`
	FilePath string   `json:"file_path,omitempty"` // empty for the workspace root
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
	Expanded bool     `json:"expanded"`
}

// IsRoot reports whether n is the workspace root.
func (n *Note) IsRoot() bool {
	return n.Parent == ""
}

// IndexOf returns the position of dirPath among n's children, or -1.
func (n *Note) IndexOf(dirPath string) int {
	return slices.Index(n.Children, dirPath)
}

// Clone returns a deep copy of n.
func (n *Note) Clone() *Note {
	c := *n
	c.Children = slices.Clone(n.Children)
	return &c
}
