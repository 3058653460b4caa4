package outline

import "github.com/starford/formfill/internal/models"

// Paragraph is one body paragraph, annotated with outline metadata once a
// Builder has run over it.
type Paragraph struct {
	ContentIndex int    `json:"content_index"`
	StartIndex   int    `json:"start_index"`
	EndIndex     int    `json:"end_index"`
	Text         string `json:"text"`
	IsBullet     bool   `json:"is_bullet"`
	// NestingLevel is meaningful only when IsBullet is set.
	NestingLevel int     `json:"nesting_level"`
	OutlineID    string  `json:"outline_id,omitempty"`
	IndentStart  float64 `json:"indent_start"`

	// Bullet is the native list metadata, nil for plain paragraphs.
	Bullet *models.Bullet `json:"-"`
}

// Extract lists the paragraphs of content in document order. Non-paragraph
// elements are skipped but still count towards ContentIndex.
func Extract(content []models.StructuralElement) []Paragraph {
	out := make([]Paragraph, 0, len(content))
	for i, el := range content {
		if el.Paragraph == nil {
			continue
		}
		p := Paragraph{
			ContentIndex: i,
			StartIndex:   el.StartIndex,
			EndIndex:     el.EndIndex,
			Text:         el.Paragraph.Text(),
			IndentStart:  el.Paragraph.IndentStart(),
		}
		if b := el.Paragraph.Bullet; b != nil {
			bc := *b
			p.Bullet = &bc
		}
		out = append(out, p)
	}
	return out
}

// Questions returns only the paragraphs that carry an outline ID.
func Questions(paras []Paragraph) []Paragraph {
	var out []Paragraph
	for _, p := range paras {
		if p.IsBullet && p.OutlineID != "" {
			out = append(out, p)
		}
	}
	return out
}

// reset clears any previous annotation so builders are idempotent.
func reset(paras []Paragraph) []Paragraph {
	out := make([]Paragraph, len(paras))
	copy(out, paras)
	for i := range out {
		out[i].IsBullet = false
		out[i].NestingLevel = 0
		out[i].OutlineID = ""
	}
	return out
}
