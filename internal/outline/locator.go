package outline

import "strings"

// Slot describes where a question's answer lives or should be inserted.
type Slot struct {
	Question Paragraph
	// InsertAt is the offset where a new answer paragraph belongs, or the
	// start of the existing answer.
	InsertAt int
	// Answer is the existing answer paragraph, nil when there is none.
	Answer *Paragraph
	// Uncertain flags a trailing plain paragraph after the last question
	// that may be an unindented answer or unrelated footer text.
	Uncertain bool
}

// HasAnswer reports whether the slot holds a non-blank answer.
func (s Slot) HasAnswer() bool {
	return s.Answer != nil && strings.TrimSpace(s.Answer.Text) != ""
}

// TextMatches reports whether expected is a case-insensitive substring of
// text. An empty expectation always matches.
func TextMatches(text, expected string) bool {
	if expected == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(expected))
}

// FindQuestion returns the paragraph carrying outlineID. A non-empty
// validation text that does not appear in the paragraph counts as not found.
func FindQuestion(paras []Paragraph, outlineID, validation string) (Paragraph, bool) {
	for _, p := range paras {
		if p.OutlineID != outlineID || !p.IsBullet {
			continue
		}
		if !TextMatches(p.Text, validation) {
			return Paragraph{}, false
		}
		return p, true
	}
	return Paragraph{}, false
}

// LocateAnswer decides where the answer to q lives. Neighbours are found
// by character offset, never by slice position, so the result stays
// correct for any ordering of paras.
func LocateAnswer(paras []Paragraph, q Paragraph) Slot {
	slot := Slot{Question: q, InsertAt: q.EndIndex}

	next := -1
	for i, p := range paras {
		if p.StartIndex < q.EndIndex {
			continue
		}
		if next < 0 || p.StartIndex < paras[next].StartIndex {
			next = i
		}
	}
	if next < 0 || paras[next].IsBullet {
		return slot
	}

	cand := paras[next]
	if cand.IndentStart > q.IndentStart || outlineAfter(paras, cand.StartIndex) {
		slot.Answer = &cand
		slot.InsertAt = cand.StartIndex
		return slot
	}
	slot.Uncertain = true
	return slot
}

// Locate finds the question for outlineID and its answer slot.
func Locate(paras []Paragraph, outlineID, validation string) (Slot, bool) {
	q, ok := FindQuestion(paras, outlineID, validation)
	if !ok {
		return Slot{}, false
	}
	return LocateAnswer(paras, q), true
}

// outlineAfter reports whether an outline paragraph starts after offset.
func outlineAfter(paras []Paragraph, offset int) bool {
	for _, p := range paras {
		if p.IsBullet && p.StartIndex > offset {
			return true
		}
	}
	return false
}
