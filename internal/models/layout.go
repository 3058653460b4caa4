package models

import (
	"strings"
	"unicode/utf16"
)

// UTF16Len returns the length of s in UTF-16 code units, the unit of every
// document offset.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// NewParagraph builds a single-run paragraph. A terminating newline is
// added when text lacks one.
func NewParagraph(text string, style *ParagraphStyle, bullet *Bullet) Paragraph {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return Paragraph{
		Elements:       []ParagraphElement{{TextRun: &TextRun{Content: text}}},
		ParagraphStyle: style,
		Bullet:         bullet,
	}
}

// NewDocument assembles a document from paragraphs, computing every
// offset. The body starts with a section break occupying [0, 1).
func NewDocument(id, title string, paras []Paragraph) *Document {
	return &Document{DocumentID: id, Title: title, Body: LayoutBody(paras, 1, true)}
}

// LayoutBody lays paragraphs out from offset base. When sectionBreak is
// set a section break ending at base precedes them.
func LayoutBody(paras []Paragraph, base int, sectionBreak bool) Body {
	content := make([]StructuralElement, 0, len(paras)+1)
	if sectionBreak {
		content = append(content, StructuralElement{EndIndex: base, SectionBreak: &SectionBreak{}})
	}
	idx := base
	for i := range paras {
		p := paras[i]
		p.Elements = append([]ParagraphElement(nil), p.Elements...)
		start := idx
		for j := range p.Elements {
			el := &p.Elements[j]
			el.StartIndex = idx
			if el.TextRun != nil {
				idx += UTF16Len(el.TextRun.Content)
			}
			el.EndIndex = idx
		}
		content = append(content, StructuralElement{StartIndex: start, EndIndex: idx, Paragraph: &p})
	}
	return Body{Content: content}
}
