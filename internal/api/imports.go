package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/formfill/internal/formservice"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ImportHandler accepts form files and stores them in the vault.
type ImportHandler struct {
	svc *formservice.Service
}

// NewImportHandler creates an upload handler backed by svc.
func NewImportHandler(svc *formservice.Service) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// safeName validates that the filename is a plain name with no path
// separators or traversal.
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.ContainsAny(cleaned, `/\`) {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return cleaned, nil
}

// Upload handles POST /api/documents/import (multipart/form-data, field
// "file", optional "id" and "overwrite").
//
//	@Summary		Import a form file into the vault
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"DOCX, Markdown, HTML, PDF or text form"
//	@Param			id			formData	string	false	"Document ID (default: derived from the filename)"
//	@Param			overwrite	formData	bool	false	"Replace an existing document"
//	@Success		201			{object}	ImportResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/import [post]
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	overwrite := false
	if v := r.FormValue("overwrite"); v != "" {
		if overwrite, err = strconv.ParseBool(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid overwrite value"))
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read file"))
		return
	}

	meta, err := h.svc.ImportData(r.Context(), name, data, r.FormValue("id"), overwrite)
	if err != nil {
		writeError(w, "import", err, slog.String("filename", name))
		return
	}
	writeJSON(w, http.StatusCreated, ImportResponse{Document: meta, Size: int64(len(data))})
}
