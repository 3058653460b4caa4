package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/starford/formfill/internal/models"
)

// twipsPerPoint converts w:ind values.
const twipsPerPoint = 20

// DOCXParser handles .docx files. Numbered paragraphs (w:numPr) become
// native bullets: numId is the list and ilvl the nesting level.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*models.Document, error) {
	// go-docx needs a ReaderAt and size, so write to temp file.
	tmp, err := os.CreateTemp("", "formfill-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var b builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		b.paras = append(b.paras, docxParagraph(para))
	}
	return b.document(titleFrom(filename)), nil
}

func docxParagraph(para *docx.Paragraph) models.Paragraph {
	text := clean(docxParagraphText(para))
	props := para.Properties
	if props == nil {
		return models.NewParagraph(text, nil, nil)
	}

	var style *models.ParagraphStyle
	if props.Ind != nil && props.Ind.Left > 0 {
		style = indentStyle(float64(props.Ind.Left) / twipsPerPoint)
	}
	if level := docxHeadingLevel(props.Style); level > 0 {
		if style == nil {
			style = &models.ParagraphStyle{}
		}
		style.NamedStyleType = fmt.Sprintf("HEADING_%d", level)
	}

	var bullet *models.Bullet
	if np := props.NumProperties; np != nil && np.NumID != nil && np.NumID.Val != "" && np.NumID.Val != "0" {
		bullet = &models.Bullet{ListID: "docx." + np.NumID.Val}
		if np.Ilvl != nil {
			bullet.NestingLevel, _ = strconv.Atoi(np.Ilvl.Val)
		}
	}
	return models.NewParagraph(text, style, bullet)
}

func docxHeadingLevel(style *docx.Style) int {
	if style == nil {
		return 0
	}
	v := strings.ToLower(strings.ReplaceAll(style.Val, " ", ""))
	if !strings.HasPrefix(v, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "heading"))
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}

var _ Parser = (*DOCXParser)(nil)
