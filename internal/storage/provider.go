// Package storage defines where documents come from and where write
// batches go: the local vault, the Google Docs API or a read-only file.
package storage

import (
	"context"

	"github.com/starford/formfill/internal/models"
)

// Provider reads documents and applies write batches to them.
type Provider interface {
	// Get returns the current state of the document.
	Get(ctx context.Context, docID string) (*models.Document, error)
	// BatchUpdate applies req atomically. When req.WriteControl names a
	// required revision that is no longer current it returns
	// apperr.ErrConflict.
	BatchUpdate(ctx context.Context, docID string, req models.BatchUpdateRequest) (*models.BatchUpdateResponse, error)
}

// Lister is implemented by providers that can enumerate their documents.
type Lister interface {
	List(ctx context.Context) ([]models.DocumentMeta, error)
}
