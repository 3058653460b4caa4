package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/parser"
)

// File serves local form files (DOCX, Markdown, HTML, PDF, text) through
// the parser package. The document ID is the file path. Files are
// read-only: analysis and dry runs work, writes fail with ErrReadOnly.
type File struct{}

var _ Provider = File{}

// Get parses the file at docID.
func (File) Get(_ context.Context, docID string) (*models.Document, error) {
	doc, err := parser.ParseFile(docID)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: file %s: %w", docID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// BatchUpdate always fails.
func (File) BatchUpdate(_ context.Context, docID string, _ models.BatchUpdateRequest) (*models.BatchUpdateResponse, error) {
	return nil, fmt.Errorf("storage: %s: %w", docID, apperr.ErrReadOnly)
}
