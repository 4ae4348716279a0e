// Package apperr defines the error classes shared by the tree engine and its callers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName       = errors.New("invalid name")
	ErrNameCollision     = errors.New("name collision")
	ErrNoParent          = errors.New("no parent")
	ErrNotFound          = errors.New("not found")
	ErrConfigCorrupt     = errors.New("config corrupt")
	ErrFilesystem        = errors.New("filesystem error")
	ErrInconsistentState = errors.New("inconsistent state")

	// ErrInvalidRequest marks malformed input to the command layer.
	ErrInvalidRequest = errors.New("invalid request")
)

// Error carries the class of a failure together with where it happened.
// errors.Is matches both Kind and the wrapped cause.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Path != "" {
		msg += " " + fmt.Sprintf("%q", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New returns an *Error of the given kind.
func New(kind error, op, path string, err error) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// FS wraps an I/O failure as ErrFilesystem. A nil err yields nil.
func FS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return New(ErrFilesystem, op, path, err)
}

// IsInconsistent reports whether err means the filesystem was left half
// mutated and needs reconciliation rather than a retry.
func IsInconsistent(err error) bool {
	return errors.Is(err, ErrInconsistentState)
}
