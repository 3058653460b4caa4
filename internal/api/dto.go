package api

import (
	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// Bundle is the result bundle of a run (aliased from the domain layer).
type Bundle = models.Bundle

// DocumentListResponse wraps the vault listing.
type DocumentListResponse struct {
	Documents []models.DocumentMeta `json:"documents" validate:"required"`
}

// StructureResponse is the annotated paragraph dump of a document.
type StructureResponse struct {
	DocID      string              `json:"doc_id" example:"intake" validate:"required"`
	Mode       outline.Mode        `json:"mode" example:"native_bullets" validate:"required"`
	Paragraphs []outline.Paragraph `json:"paragraphs" validate:"required"`
}

// AnalyzeResponse pairs per-question analysis with its summary.
type AnalyzeResponse struct {
	Results []filler.Analysis      `json:"results" validate:"required"`
	Summary filler.AnalysisSummary `json:"summary" validate:"required"`
}

// FillErrorResponse is returned when a run aborts after it started.
type FillErrorResponse struct {
	Error  string  `json:"error" example:"rate limited" validate:"required"`
	Bundle *Bundle `json:"bundle" validate:"required"`
}

// RunListResponse wraps paginated run listings.
type RunListResponse struct {
	Runs  []models.RunMeta `json:"runs" validate:"required"`
	Total int              `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps answer search hits.
type SearchResponse struct {
	Results []history.AnswerHit `json:"results" validate:"required"`
}

// ImportResponse is returned after a document upload.
type ImportResponse struct {
	Document *models.DocumentMeta `json:"document" validate:"required"`
	Size     int64                `json:"size" example:"12345" validate:"required"`
}
