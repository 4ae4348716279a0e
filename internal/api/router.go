package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/arbor/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tree-view reads.
	r.Get("/tree", h.Outline)
	r.Get("/notes", h.GetNote)
	r.Get("/notes/*", h.GetNote)
	r.Get("/children", h.Children)
	r.Get("/children/*", h.Children)
	r.Delete("/notes/*", h.DeleteNote)

	// Structural commands.
	r.Route("/ops", func(r chi.Router) {
		r.Post("/create-child", h.CreateChild)
		r.Post("/create-sibling", h.CreateSibling)
		r.Post("/rename", h.Rename)
		r.Post("/move", h.Move)
		r.Post("/duplicate", h.Duplicate)
		r.Post("/expand", h.Expand)
		r.Post("/edit", h.Edit)
	})

	// Active note.
	r.Get("/resolve", h.Resolve)
	r.Get("/active", h.GetActive)
	r.Put("/active", h.SetActive)

	// Consistency.
	r.Get("/doctor", h.Doctor)
	r.Post("/doctor/compact", h.Compact)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
