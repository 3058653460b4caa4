package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/formservice"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/questions"
)

const maxQuestionBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *formservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *formservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docID extracts the document reference from the URL. File paths arrive
// with encoded slashes (forms%2Fintake.docx).
func docID(r *http.Request) string {
	raw := chi.URLParam(r, "docID")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// readQuestions decodes the request body as a question file. YAML is
// selected by the Content-Type, JSON otherwise.
func readQuestions(w http.ResponseWriter, r *http.Request) ([]models.Question, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	name := "input.json"
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		name = "input.yaml"
	}
	qs, err := questions.Parse(body, name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return nil, false
	}
	return qs, true
}

func queryMode(w http.ResponseWriter, r *http.Request) (outline.Mode, bool) {
	m, err := outline.ParseOverride(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return "", false
	}
	return m, true
}

func queryBool(w http.ResponseWriter, r *http.Request, key string) (bool, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid "+key+" value"))
		return false, false
	}
	return b, true
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List vault documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents(r.Context())
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs})
}

// Structure handles GET /api/documents/{docID}/structure.
//
//	@Summary		Annotated paragraphs of a document
//	@Tags			documents
//	@Produce		json
//	@Param			docID			path		string	true	"Document ID or file path"
//	@Param			mode			query		string	false	"Outline mode"	Enums(auto, native_bullets, text_based, none)
//	@Param			outline_only	query		bool	false	"Only paragraphs with an outline ID"
//	@Success		200				{object}	StructureResponse
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{docID}/structure [get]
func (h *Handler) Structure(w http.ResponseWriter, r *http.Request) {
	id := docID(r)
	mode, ok := queryMode(w, r)
	if !ok {
		return
	}
	outlineOnly, ok := queryBool(w, r, "outline_only")
	if !ok {
		return
	}
	paras, used, err := h.svc.Structure(r.Context(), id, mode, outlineOnly)
	if err != nil {
		writeError(w, "structure", err, slog.String("doc_id", id))
		return
	}
	writeJSON(w, http.StatusOK, StructureResponse{DocID: id, Mode: used, Paragraphs: paras})
}

// Analyze handles POST /api/documents/{docID}/analyze.
//
//	@Summary		Compare a question file against a document without writing
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			docID	path		string	true	"Document ID or file path"
//	@Param			mode	query		string	false	"Outline mode"	Enums(auto, native_bullets, text_based, none)
//	@Param			body	body		object	true	"Question file (JSON or YAML)"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{docID}/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id := docID(r)
	mode, ok := queryMode(w, r)
	if !ok {
		return
	}
	qs, ok := readQuestions(w, r)
	if !ok {
		return
	}
	results, summary, err := h.svc.Analyze(r.Context(), id, qs, mode)
	if err != nil {
		writeError(w, "analyze", err, slog.String("doc_id", id))
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Results: results, Summary: summary})
}

// Fill handles POST /api/documents/{docID}/fill.
//
//	@Summary		Write answers into a document
//	@Description	Returns the result bundle. A run aborted by rate limiting answers 429 with the partial bundle.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			docID	path		string	true	"Document ID or file path"
//	@Param			mode	query		string	false	"Outline mode"	Enums(auto, native_bullets, text_based, none)
//	@Param			dry_run	query		bool	false	"Plan without writing"
//	@Param			body	body		object	true	"Question file (JSON or YAML)"
//	@Success		200		{object}	Bundle
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		429		{object}	FillErrorResponse
//	@Security		BearerAuth
//	@Router			/documents/{docID}/fill [post]
func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	id := docID(r)
	mode, ok := queryMode(w, r)
	if !ok {
		return
	}
	dryRun, ok := queryBool(w, r, "dry_run")
	if !ok {
		return
	}
	qs, ok := readQuestions(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Fill(r.Context(), id, qs, filler.Options{Mode: mode, DryRun: dryRun})
	if err != nil {
		if b != nil && b.Mode != "" {
			slog.Warn("fill aborted", slog.String("doc_id", id), slog.String("run_id", b.RunID), slog.String("error", err.Error()))
			writeJSON(w, statusOf(err), FillErrorResponse{Error: err.Error(), Bundle: b})
			return
		}
		writeError(w, "fill", err, slog.String("doc_id", id))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List stored runs, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			doc_id	query		string	false	"Filter by document"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	runs, total, err := h.svc.Runs(r.Context(), limit, offset, q.Get("doc_id"))
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs, Total: total})
}

// GetRun handles GET /api/runs/{runID}.
//
//	@Summary		Get the bundle of a stored run
//	@Tags			runs
//	@Produce		json
//	@Param			runID	path		string	true	"Run ID"
//	@Success		200		{object}	Bundle
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{runID} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	b, err := h.svc.Run(r.Context(), runID)
	if err != nil {
		writeError(w, "get run", err, slog.String("run_id", runID))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteRun handles DELETE /api/runs/{runID}.
//
//	@Summary		Delete a stored run
//	@Tags			runs
//	@Param			runID	path	string	true	"Run ID"
//	@Success		204		"Run deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{runID} [delete]
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := h.svc.DeleteRun(r.Context(), runID); err != nil {
		writeError(w, "delete run", err, slog.String("run_id", runID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /api/runs/{runID}/report.
//
//	@Summary		Render the report of a stored run
//	@Tags			runs
//	@Produce		text/markdown,text/html
//	@Param			runID	path	string	true	"Run ID"
//	@Param			format	query	string	false	"Report format"	Enums(md, html)
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{runID}/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	body, contentType, err := h.svc.Report(r.Context(), runID, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, "report", err, slog.String("run_id", runID))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across stored answers
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.SearchAnswers(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}
