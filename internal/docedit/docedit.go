// Package docedit applies batchUpdate write requests to a document held in
// memory. Requests run in order, each against the result of the previous
// one, and a batch either applies completely or not at all.
package docedit

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// unit is one UTF-16 code unit of body text. Paragraph properties live on
// the newline that terminates the paragraph.
type unit struct {
	ch    uint16
	style *models.TextStyle
	para  *paraProps
}

type paraProps struct {
	style  *models.ParagraphStyle
	bullet *models.Bullet
}

func (p *paraProps) clone() *paraProps {
	return &paraProps{style: cloneParagraphStyle(p.style), bullet: cloneBullet(p.bullet)}
}

type buffer struct {
	base         int
	sectionBreak bool
	units        []unit
}

// Apply returns a copy of doc with reqs applied. doc itself is not modified.
func Apply(doc *models.Document, reqs []models.Request) (*models.Document, error) {
	buf, err := load(doc)
	if err != nil {
		return nil, err
	}
	for i, r := range reqs {
		if err := buf.apply(r); err != nil {
			return nil, fmt.Errorf("docedit: request %d (%s): %w", i, r.Kind(), err)
		}
	}
	return &models.Document{
		DocumentID: doc.DocumentID,
		Title:      doc.Title,
		RevisionID: doc.RevisionID,
		Body:       models.LayoutBody(buf.paragraphs(), buf.base, buf.sectionBreak),
	}, nil
}

func load(doc *models.Document) (*buffer, error) {
	b := &buffer{}
	started := false
	for i, el := range doc.Body.Content {
		switch {
		case el.SectionBreak != nil && !started:
			b.sectionBreak = true
		case el.Paragraph != nil:
			if !started {
				b.base = el.StartIndex
				started = true
			}
			if err := b.appendParagraph(el.Paragraph); err != nil {
				return nil, fmt.Errorf("docedit: element %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("docedit: element %d: only paragraphs are editable: %w", i, apperr.ErrUnsupportedFormat)
		}
	}
	if !started {
		return nil, fmt.Errorf("docedit: document has no paragraphs: %w", apperr.ErrUnsupportedFormat)
	}
	return b, nil
}

func (b *buffer) appendParagraph(p *models.Paragraph) error {
	n0 := len(b.units)
	for _, el := range p.Elements {
		if el.TextRun == nil {
			continue
		}
		for _, cu := range utf16.Encode([]rune(el.TextRun.Content)) {
			b.units = append(b.units, unit{ch: cu, style: el.TextRun.TextStyle})
		}
	}
	last := len(b.units) - 1
	if last < n0 || b.units[last].ch != '\n' {
		return fmt.Errorf("paragraph lacks a terminating newline: %w", apperr.ErrUnsupportedFormat)
	}
	for i := n0; i < last; i++ {
		if b.units[i].ch == '\n' {
			return fmt.Errorf("newline inside paragraph: %w", apperr.ErrUnsupportedFormat)
		}
	}
	b.units[last].para = &paraProps{
		style:  cloneParagraphStyle(p.ParagraphStyle),
		bullet: cloneBullet(p.Bullet),
	}
	return nil
}

func (b *buffer) apply(r models.Request) error {
	switch {
	case r.InsertText != nil:
		return b.insertText(r.InsertText.Location.Index, r.InsertText.Text)
	case r.DeleteContentRange != nil:
		return b.deleteRange(r.DeleteContentRange.Range)
	case r.UpdateParagraphStyle != nil:
		return b.updateParagraphStyle(r.UpdateParagraphStyle)
	case r.DeleteParagraphBullets != nil:
		s, e, err := b.span(r.DeleteParagraphBullets.Range)
		if err != nil {
			return err
		}
		b.eachParagraph(s, e, func(p *paraProps) { p.bullet = nil })
		return nil
	case r.UpdateTextStyle != nil:
		return b.updateTextStyle(r.UpdateTextStyle)
	}
	return fmt.Errorf("empty request: %w", apperr.ErrUnsupportedFormat)
}

func (b *buffer) insertText(index int, text string) error {
	if text == "" {
		return fmt.Errorf("insert of empty text: %w", apperr.ErrInvalidRange)
	}
	idx := index - b.base
	// The final newline terminates the body; nothing may follow it.
	if idx < 0 || idx >= len(b.units) {
		return fmt.Errorf("insert at %d outside [%d, %d): %w", index, b.base, b.base+len(b.units), apperr.ErrInvalidRange)
	}

	var style *models.TextStyle
	if idx > 0 && b.units[idx-1].ch != '\n' {
		style = b.units[idx-1].style
	}
	var props *paraProps
	for j := idx; j < len(b.units); j++ {
		if b.units[j].ch == '\n' {
			props = b.units[j].para
			break
		}
	}

	encoded := utf16.Encode([]rune(text))
	ins := make([]unit, len(encoded))
	for i, cu := range encoded {
		ins[i] = unit{ch: cu, style: style}
		if cu == '\n' {
			ins[i].para = props.clone()
		}
	}

	out := make([]unit, 0, len(b.units)+len(ins))
	out = append(out, b.units[:idx]...)
	out = append(out, ins...)
	out = append(out, b.units[idx:]...)
	b.units = out
	return nil
}

func (b *buffer) deleteRange(r models.Range) error {
	s, e := r.StartIndex-b.base, r.EndIndex-b.base
	if s < 0 || s >= e || e > len(b.units)-1 {
		return fmt.Errorf("delete [%d, %d) outside [%d, %d): %w", r.StartIndex, r.EndIndex, b.base, b.base+len(b.units)-1, apperr.ErrInvalidRange)
	}
	b.units = append(b.units[:s], b.units[e:]...)
	return nil
}

func (b *buffer) updateParagraphStyle(r *models.UpdateParagraphStyleRequest) error {
	s, e, err := b.span(r.Range)
	if err != nil {
		return err
	}
	fields, err := parseFields(r.Fields, "indentStart", "indentFirstLine", "namedStyleType")
	if err != nil {
		return err
	}
	b.eachParagraph(s, e, func(p *paraProps) {
		if p.style == nil {
			p.style = &models.ParagraphStyle{}
		}
		if fields["indentStart"] {
			p.style.IndentStart = cloneDimension(r.ParagraphStyle.IndentStart)
		}
		if fields["indentFirstLine"] {
			p.style.IndentFirstLine = cloneDimension(r.ParagraphStyle.IndentFirstLine)
		}
		if fields["namedStyleType"] {
			p.style.NamedStyleType = r.ParagraphStyle.NamedStyleType
		}
	})
	return nil
}

func (b *buffer) updateTextStyle(r *models.UpdateTextStyleRequest) error {
	s, e, err := b.span(r.Range)
	if err != nil {
		return err
	}
	if s == e {
		return fmt.Errorf("empty text style range: %w", apperr.ErrInvalidRange)
	}
	fields, err := parseFields(r.Fields, "bold", "italic", "foregroundColor")
	if err != nil {
		return err
	}
	merged := make(map[*models.TextStyle]*models.TextStyle)
	for i := s; i < e; i++ {
		old := b.units[i].style
		ns, ok := merged[old]
		if !ok {
			ns = mergeTextStyle(old, &r.TextStyle, fields)
			merged[old] = ns
		}
		b.units[i].style = ns
	}
	return nil
}

// span converts a range to unit indices.
func (b *buffer) span(r models.Range) (int, int, error) {
	s, e := r.StartIndex-b.base, r.EndIndex-b.base
	if s < 0 || s > e || e > len(b.units) {
		return 0, 0, fmt.Errorf("range [%d, %d) outside [%d, %d): %w", r.StartIndex, r.EndIndex, b.base, b.base+len(b.units), apperr.ErrInvalidRange)
	}
	return s, e, nil
}

// eachParagraph calls fn for every paragraph overlapping [s, e), or for the
// paragraph containing s when the range is empty.
func (b *buffer) eachParagraph(s, e int, fn func(*paraProps)) {
	ps := 0
	for i, u := range b.units {
		if u.ch != '\n' {
			continue
		}
		pe := i + 1
		if (s == e && s >= ps && s < pe) || (ps < e && pe > s) {
			fn(u.para)
		}
		ps = pe
	}
}

// paragraphs converts the buffer back to paragraphs, grouping equal
// styles into runs.
func (b *buffer) paragraphs() []models.Paragraph {
	var out []models.Paragraph
	start := 0
	for i, u := range b.units {
		if u.ch != '\n' {
			continue
		}
		out = append(out, paragraph(b.units[start:i+1]))
		start = i + 1
	}
	return out
}

func paragraph(us []unit) models.Paragraph {
	props := us[len(us)-1].para
	p := models.Paragraph{
		ParagraphStyle: cloneParagraphStyle(props.style),
		Bullet:         cloneBullet(props.bullet),
	}
	runStart := 0
	for i := 1; i <= len(us); i++ {
		if i < len(us) && sameStyle(us[i].style, us[runStart].style) {
			continue
		}
		chunk := make([]uint16, 0, i-runStart)
		for _, u := range us[runStart:i] {
			chunk = append(chunk, u.ch)
		}
		p.Elements = append(p.Elements, models.ParagraphElement{TextRun: &models.TextRun{
			Content:   string(utf16.Decode(chunk)),
			TextStyle: cloneTextStyle(us[runStart].style),
		}})
		runStart = i
	}
	return p
}

func parseFields(list string, allowed ...string) (map[string]bool, error) {
	out := make(map[string]bool, len(allowed))
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if f == "*" {
			for _, a := range allowed {
				out[a] = true
			}
			continue
		}
		known := false
		for _, a := range allowed {
			if a == f {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unsupported field %q: %w", f, apperr.ErrUnsupportedFormat)
		}
		out[f] = true
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no fields given: %w", apperr.ErrInvalidRange)
	}
	return out, nil
}
