// Package models defines the domain types for formfill.
//
// Document types mirror the Google Docs REST representation so that the
// remote client, the local vault and the file parsers share one shape.
// All offsets are UTF-16 code units in the document-wide index space.
package models

import "strings"

// UnitPT is the only dimension unit formfill writes.
const UnitPT = "PT"

// Document is a whole document as returned by documents.get.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title,omitempty"`
	RevisionID string `json:"revisionId,omitempty"`
	Body       Body   `json:"body"`
}

// Body holds the ordered structural elements of a document.
type Body struct {
	Content []StructuralElement `json:"content"`
}

// StructuralElement is one block of body content. Exactly one of
// Paragraph, SectionBreak or Table is set.
type StructuralElement struct {
	StartIndex   int           `json:"startIndex,omitempty"`
	EndIndex     int           `json:"endIndex"`
	Paragraph    *Paragraph    `json:"paragraph,omitempty"`
	SectionBreak *SectionBreak `json:"sectionBreak,omitempty"`
	Table        *Table        `json:"table,omitempty"`
}

// SectionBreak marks the start of a section.
type SectionBreak struct{}

// Table is kept opaque; formfill never looks inside tables.
type Table struct {
	Rows    int `json:"rows,omitempty"`
	Columns int `json:"columns,omitempty"`
}

// Paragraph is a run of text terminated by a newline.
type Paragraph struct {
	Elements       []ParagraphElement `json:"elements"`
	ParagraphStyle *ParagraphStyle    `json:"paragraphStyle,omitempty"`
	Bullet         *Bullet            `json:"bullet,omitempty"`
}

// ParagraphElement is an inline piece of a paragraph.
type ParagraphElement struct {
	StartIndex int      `json:"startIndex,omitempty"`
	EndIndex   int      `json:"endIndex"`
	TextRun    *TextRun `json:"textRun,omitempty"`
}

// TextRun is a span of text sharing one style.
type TextRun struct {
	Content   string     `json:"content"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// TextStyle is the subset of character styling formfill reads and writes.
type TextStyle struct {
	Bold            bool           `json:"bold,omitempty"`
	Italic          bool           `json:"italic,omitempty"`
	ForegroundColor *OptionalColor `json:"foregroundColor,omitempty"`
}

// OptionalColor wraps a colour that may be absent (transparent).
type OptionalColor struct {
	Color *Color `json:"color,omitempty"`
}

// Color is an RGB colour.
type Color struct {
	RGBColor *RGBColor `json:"rgbColor,omitempty"`
}

// RGBColor components are in the range [0, 1].
type RGBColor struct {
	Red   float64 `json:"red,omitempty"`
	Green float64 `json:"green,omitempty"`
	Blue  float64 `json:"blue,omitempty"`
}

// ParagraphStyle is the subset of paragraph styling formfill uses.
type ParagraphStyle struct {
	NamedStyleType  string     `json:"namedStyleType,omitempty"`
	IndentStart     *Dimension `json:"indentStart,omitempty"`
	IndentFirstLine *Dimension `json:"indentFirstLine,omitempty"`
}

// Dimension is a magnitude in a unit (always PT here).
type Dimension struct {
	Magnitude float64 `json:"magnitude,omitempty"`
	Unit      string  `json:"unit,omitempty"`
}

// Bullet is native list metadata attached to a paragraph.
type Bullet struct {
	ListID       string `json:"listId,omitempty"`
	NestingLevel int    `json:"nestingLevel,omitempty"`
}

// Text returns the concatenated run content with trailing newlines removed.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, el := range p.Elements {
		if el.TextRun != nil {
			b.WriteString(el.TextRun.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// IndentStart returns the left indent in points, 0 when unset.
func (p *Paragraph) IndentStart() float64 {
	if p.ParagraphStyle == nil || p.ParagraphStyle.IndentStart == nil {
		return 0
	}
	return p.ParagraphStyle.IndentStart.Magnitude
}

// EndIndex returns the end offset of the body (one past the final newline).
func (d *Document) EndIndex() int {
	if n := len(d.Body.Content); n > 0 {
		return d.Body.Content[n-1].EndIndex
	}
	return 0
}

// PT returns a point dimension.
func PT(magnitude float64) *Dimension {
	return &Dimension{Magnitude: magnitude, Unit: UnitPT}
}
