package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/starford/formfill/internal/models"
)

// PDFParser handles PDF files. PDFs carry no list structure, so every text
// line becomes a plain paragraph and outlines are recovered from markers.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*models.Document, error) {
	// ledongthuc/pdf requires a file path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "formfill-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var b builder
	for _, page := range pages {
		b.paras = append(b.paras, paragraphsOf(page)...)
	}
	return b.document(titleFrom(filename)), nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, strings.ReplaceAll(text, "\r", "\n"))
	}
	return pages, nil
}

var _ Parser = (*PDFParser)(nil)
