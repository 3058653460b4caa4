// Package parser turns form files (DOCX, Markdown, HTML, PDF, plain text)
// into the document model so they can be analysed like a remote document.
// Parsed documents are read-only snapshots; list items become native
// bullets and continuation text becomes indented plain paragraphs.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// Parser converts one file format into a document.
type Parser interface {
	Parse(r io.Reader, filename string) (*models.Document, error)
}

// SupportedExtensions lists file extensions with a parser.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// IndentStep is the indent, in points, of one list nesting level.
const IndentStep = 36

// ForFile returns the parser for the given filename's extension.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("parser: extension %q: %w", ext, apperr.ErrUnsupportedFormat)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ParseFile opens path and parses it with the matching parser. The
// document ID is the path itself.
func ParseFile(path string) (*models.Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parser: open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}
	doc.DocumentID = path
	return doc, nil
}

// builder collects paragraphs in document order.
type builder struct {
	paras []models.Paragraph
}

func (b *builder) plain(text string, indent float64) {
	b.paras = append(b.paras, models.NewParagraph(clean(text), indentStyle(indent), nil))
}

func (b *builder) heading(text string, level int) {
	b.paras = append(b.paras, models.NewParagraph(clean(text), &models.ParagraphStyle{
		NamedStyleType: fmt.Sprintf("HEADING_%d", level),
	}, nil))
}

func (b *builder) item(text, listID string, level int) {
	b.paras = append(b.paras, models.NewParagraph(clean(text), indentStyle(float64(level*IndentStep)), &models.Bullet{
		ListID:       listID,
		NestingLevel: level,
	}))
}

func (b *builder) document(title string) *models.Document {
	if len(b.paras) == 0 {
		b.plain("", 0)
	}
	return models.NewDocument("", title, b.paras)
}

func indentStyle(indent float64) *models.ParagraphStyle {
	if indent <= 0 {
		return nil
	}
	return &models.ParagraphStyle{IndentStart: models.PT(indent), IndentFirstLine: models.PT(indent)}
}

// clean collapses whitespace so text fits in one paragraph.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleFrom(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
