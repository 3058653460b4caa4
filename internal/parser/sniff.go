package parser

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// CheckContent verifies that data looks like the format its filename
// claims. Binary formats are matched by signature, text formats only need
// to sniff as text.
func CheckContent(data []byte, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return fmt.Errorf("parser: extension %q: %w", ext, apperr.ErrUnsupportedFormat)
	}
	detected := strings.Split(http.DetectContentType(data), ";")[0]
	switch ext {
	case ".docx":
		if detected != "application/zip" {
			return fmt.Errorf("parser: content does not match %s (detected: %s): %w", ext, detected, apperr.ErrUnsupportedFormat)
		}
	case ".pdf":
		if detected != "application/pdf" {
			return fmt.Errorf("parser: content does not match %s (detected: %s): %w", ext, detected, apperr.ErrUnsupportedFormat)
		}
	default:
		if !strings.HasPrefix(detected, "text/") {
			return fmt.Errorf("parser: content does not match %s (detected: %s): %w", ext, detected, apperr.ErrUnsupportedFormat)
		}
	}
	return nil
}

// ParseBytes checks and parses an uploaded file. The document ID is the
// base name of filename.
func ParseBytes(data []byte, filename string) (*models.Document, error) {
	if err := CheckContent(data, filename); err != nil {
		return nil, err
	}
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	doc.DocumentID = filepath.Base(filename)
	return doc, nil
}
