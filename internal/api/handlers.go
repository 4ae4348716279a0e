package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/arbor/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard, falling back to the
// "path" query parameter. Supports encoded slashes (e.g. Projects%2FArbor).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return r.URL.Query().Get("path")
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decode reads a JSON body into v and validates it when v knows how.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if vv, ok := v.(validation.Validatable); ok {
		if err := vv.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return false
		}
	}
	return true
}

// Outline handles GET /api/tree.
//
//	@Summary		Get the outline below a note
//	@Tags			tree
//	@Produce		json
//	@Param			path	query		string	false	"Note path (empty for the root)"
//	@Param			depth	query		int		false	"Levels to descend (-1 for all)"
//	@Success		200		{object}	OutlineNode
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	depth := -1
	if d := q.Get("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("depth must be an integer"))
			return
		}
		depth = n
	}
	out, err := h.svc.Outline(r.Context(), q.Get("path"), depth)
	if err != nil {
		writeError(w, "outline", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by note path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Get(r.Context(), notePath(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Children handles GET /api/children/*.
//
//	@Summary		List the children of a note in display order
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	ChildrenResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/children/{path} [get]
func (h *Handler) Children(w http.ResponseWriter, r *http.Request) {
	kids, err := h.svc.Children(r.Context(), notePath(r))
	if err != nil {
		writeError(w, "children", err)
		return
	}
	writeJSON(w, http.StatusOK, ChildrenResponse{Notes: kids})
}

// DeleteNote handles DELETE /api/notes/*.
//
//	@Summary		Move a note and its subtree to the trash
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteView	"The former parent"
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	parent, err := h.svc.Delete(r.Context(), notePath(r))
	if err != nil {
		writeError(w, "delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

// CreateChild handles POST /api/ops/create-child.
//
//	@Summary		Create a note as the last child of another
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"Parent path and new name"
//	@Success		201		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/create-child [post]
func (h *Handler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.CreateChild(r.Context(), req.Path, req.Name)
	if err != nil {
		writeError(w, "create child", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// CreateSibling handles POST /api/ops/create-sibling.
//
//	@Summary		Create a note right after another
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"Note path and new name"
//	@Success		201		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/create-sibling [post]
func (h *Handler) CreateSibling(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.CreateSibling(r.Context(), req.Path, req.Name)
	if err != nil {
		writeError(w, "create sibling", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Rename handles POST /api/ops/rename.
//
//	@Summary		Rename a note in place
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"Note path and new name"
//	@Success		200		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/rename [post]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.Rename(r.Context(), req.Path, req.Name)
	if err != nil {
		writeError(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Move handles POST /api/ops/move.
//
//	@Summary		Reorder or re-parent a note
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveRequest	true	"Move"
//	@Success		200		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/move [post]
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := noteservice.ParseMove(req.Kind, req.Delta, req.Name)
	if err != nil {
		writeError(w, "move", err)
		return
	}
	note, err := h.svc.Move(r.Context(), req.Path, m)
	if err != nil {
		writeError(w, "move", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Duplicate handles POST /api/ops/duplicate.
//
//	@Summary		Copy a note and its subtree next to itself
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PathRequest	true	"Note path"
//	@Success		201		{object}	NoteView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ops/duplicate [post]
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.Duplicate(r.Context(), req.Path)
	if err != nil {
		writeError(w, "duplicate", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Expand handles POST /api/ops/expand.
//
//	@Summary		Record whether a note is shown expanded
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExpandRequest	true	"Note path and state"
//	@Success		200		{object}	NoteView
//	@Security		BearerAuth
//	@Router			/ops/expand [post]
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.SetExpanded(r.Context(), req.Path, req.Open)
	if err != nil {
		writeError(w, "expand", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Edit handles POST /api/ops/edit.
//
//	@Summary		Open a note for editing and make it active
//	@Tags			ops
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PathRequest	true	"Note path"
//	@Success		200		{object}	NoteView
//	@Security		BearerAuth
//	@Router			/ops/edit [post]
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.Edit(r.Context(), req.Path)
	if err != nil {
		writeError(w, "edit", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Find the note owning an absolute file path
//	@Tags			active
//	@Produce		json
//	@Param			file	query		string	true	"Absolute file path"
//	@Success		200		{object}	NoteView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'file' is required"))
		return
	}
	note, err := h.svc.Resolve(r.Context(), file)
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// GetActive handles GET /api/active.
//
//	@Summary		Get the active note
//	@Tags			active
//	@Produce		json
//	@Success		200		{object}	NoteView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active [get]
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Active(r.Context())
	if err != nil {
		writeError(w, "get active", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// SetActive handles PUT /api/active.
//
//	@Summary		Report the document focused in the editor
//	@Tags			active
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ActiveRequest	true	"Focused file"
//	@Success		200		{object}	NoteView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/active [put]
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.SetActive(r.Context(), req.File)
	if err != nil {
		writeError(w, "set active", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Doctor handles GET /api/doctor.
//
//	@Summary		Report workspace inconsistencies
//	@Tags			doctor
//	@Produce		json
//	@Success		200	{object}	DoctorResponse
//	@Security		BearerAuth
//	@Router			/doctor [get]
func (h *Handler) Doctor(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.Check(r.Context())
	if err != nil {
		writeError(w, "doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, DoctorResponse{Issues: issues})
}

// Compact handles POST /api/doctor/compact.
//
//	@Summary		Drop overlay entries whose directory is gone
//	@Tags			doctor
//	@Produce		json
//	@Success		200	{object}	CompactResponse
//	@Security		BearerAuth
//	@Router			/doctor/compact [post]
func (h *Handler) Compact(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Compact(r.Context())
	if err != nil {
		writeError(w, "compact", err)
		return
	}
	writeJSON(w, http.StatusOK, CompactResponse{Removed: removed})
}
