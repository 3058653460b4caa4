package storage

import (
	"context"

	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/parser"
)

// Mux routes document references: paths with a parseable extension go
// to Files, everything else to Docs (the vault or Google Docs).
type Mux struct {
	Files Provider
	Docs  Provider
}

var _ Provider = (*Mux)(nil)

// NewMux creates a router with the read-only File source for paths.
func NewMux(docs Provider) *Mux {
	return &Mux{Files: File{}, Docs: docs}
}

// For returns the provider serving docID.
func (m *Mux) For(docID string) Provider {
	if parser.IsSupportedExtension(docID) {
		return m.Files
	}
	return m.Docs
}

func (m *Mux) Get(ctx context.Context, docID string) (*models.Document, error) {
	return m.For(docID).Get(ctx, docID)
}

func (m *Mux) BatchUpdate(ctx context.Context, docID string, req models.BatchUpdateRequest) (*models.BatchUpdateResponse, error) {
	return m.For(docID).BatchUpdate(ctx, docID, req)
}
