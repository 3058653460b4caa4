package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/formfill/internal/formservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *formservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ih := NewImportHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents/import", ih.Upload)
	r.Get("/documents/{docID}/structure", h.Structure)
	r.Post("/documents/{docID}/analyze", h.Analyze)
	r.Post("/documents/{docID}/fill", h.Fill)

	// Run history.
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{runID}", h.GetRun)
	r.Delete("/runs/{runID}", h.DeleteRun)
	r.Get("/runs/{runID}/report", h.Report)

	// Search over stored answers.
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
