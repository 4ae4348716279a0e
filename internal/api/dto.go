package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/tree"
)

// NoteView is the note response type (aliased from the domain layer).
type NoteView = noteservice.NoteView

// OutlineNode is a node of the outline response (aliased from the domain layer).
type OutlineNode = noteservice.OutlineNode

// Issue is one finding of the consistency check (aliased from the tree engine).
type Issue = tree.Issue

// PathRequest addresses a note by its note path ("" is the root).
type PathRequest struct {
	Path string `json:"path" example:"Projects/Arbor"`
}

// NameRequest is the body of create-child, create-sibling and rename.
type NameRequest struct {
	Path string `json:"path" example:"Projects"`
	Name string `json:"name" example:"Arbor" validate:"required"`
}

// Validate checks the request fields.
func (r NameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// MoveRequest is the body of move.
type MoveRequest struct {
	Path  string `json:"path" example:"Projects/Arbor" validate:"required"`
	Kind  string `json:"kind" example:"shift" enums:"shift,top,bottom,out,in" validate:"required"`
	Delta int    `json:"delta,omitempty" example:"-1"`
	Name  string `json:"name,omitempty" example:"Archive"`
}

// Validate checks the request fields.
func (r MoveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(
			noteservice.MoveShift, noteservice.MoveTop, noteservice.MoveBottom,
			noteservice.MoveOut, noteservice.MoveIn,
		)),
		validation.Field(&r.Delta, validation.When(r.Kind == noteservice.MoveShift, validation.Required)),
		validation.Field(&r.Name, validation.When(r.Kind == noteservice.MoveIn, validation.Required)),
	)
}

// ExpandRequest is the body of expand.
type ExpandRequest struct {
	Path string `json:"path" example:"Projects"`
	Open bool   `json:"open" example:"true"`
}

// ActiveRequest is the body of PUT /active.
type ActiveRequest struct {
	File string `json:"file" example:"/home/me/notes/Projects.md" validate:"required"`
}

// Validate checks the request fields.
func (r ActiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.File, validation.Required),
	)
}

// ChildrenResponse wraps a children listing.
type ChildrenResponse struct {
	Notes []*NoteView `json:"notes" validate:"required"`
}

// DoctorResponse wraps the consistency check.
type DoctorResponse struct {
	Issues []Issue `json:"issues" validate:"required"`
}

// CompactResponse lists the overlay entries dropped by compaction.
type CompactResponse struct {
	Removed []string `json:"removed" validate:"required"`
}
