// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrReadOnly          = errors.New("read-only source")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrRateLimited       = errors.New("rate limited")
	ErrInvalidRange      = errors.New("invalid range")
)
