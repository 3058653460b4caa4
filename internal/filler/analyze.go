package filler

import (
	"context"

	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// Analysis reports whether one input question exists in the document.
// Pointer fields are null in JSON when not applicable.
type Analysis struct {
	ID               string  `json:"id"`
	ExpectedQuestion *string `json:"expected_question"`
	Found            bool    `json:"found"`
	DocQuestion      *string `json:"doc_question"`
	Matched          *bool   `json:"matched"`
	StartIndex       *int    `json:"start_index"`
	EndIndex         *int    `json:"end_index"`
}

// AnalysisSummary counts the outcomes of an analysis.
type AnalysisSummary struct {
	Total      int `json:"total"`
	Found      int `json:"found"`
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
}

// Analyze compares qs against the document without writing anything.
func (f *Filler) Analyze(ctx context.Context, docID string, qs []models.Question, mode outline.Mode) ([]Analysis, error) {
	paras, _, err := f.Structure(ctx, docID, mode)
	if err != nil {
		return nil, err
	}
	return Analyze(paras, qs), nil
}

// Analyze looks up every question by outline ID. Unlike Locate, a text
// mismatch still counts as found; Matched records the comparison.
func Analyze(paras []outline.Paragraph, qs []models.Question) []Analysis {
	byID := make(map[string]outline.Paragraph)
	for _, p := range outline.Questions(paras) {
		if _, dup := byID[p.OutlineID]; !dup {
			byID[p.OutlineID] = p
		}
	}

	out := make([]Analysis, 0, len(qs))
	for _, q := range qs {
		a := Analysis{ID: q.OutlineID}
		expected := q.Expected()
		if expected != "" {
			a.ExpectedQuestion = &expected
		}
		if p, ok := byID[q.OutlineID]; ok {
			text, start, end := p.Text, p.StartIndex, p.EndIndex
			a.Found = true
			a.DocQuestion = &text
			a.StartIndex = &start
			a.EndIndex = &end
			if expected != "" {
				m := outline.TextMatches(text, expected)
				a.Matched = &m
			}
		}
		out = append(out, a)
	}
	return out
}

// Summarize counts found, matched and mismatched questions.
func Summarize(results []Analysis) AnalysisSummary {
	s := AnalysisSummary{Total: len(results)}
	for _, a := range results {
		if a.Found {
			s.Found++
		}
		if a.Matched != nil {
			if *a.Matched {
				s.Matched++
			} else {
				s.Mismatched++
			}
		}
	}
	return s
}
