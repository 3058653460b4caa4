package filler

import (
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// Validate diffs the input against the document outline. Malformed
// entries are left to per-question processing and ignored here. ID lists
// are in natural outline order; the other lists follow input or document
// order.
func Validate(paras []outline.Paragraph, qs []models.Question) models.Validation {
	docQs := outline.Questions(paras)
	byID := make(map[string]outline.Paragraph, len(docQs))
	docIDs := make([]string, 0, len(docQs))
	for _, p := range docQs {
		if _, dup := byID[p.OutlineID]; dup {
			continue
		}
		byID[p.OutlineID] = p
		docIDs = append(docIDs, p.OutlineID)
	}

	v := models.Validation{
		MissingInDoc:   []models.MissingInDoc{},
		MissingInInput: []models.MissingInInput{},
		TextMismatches: []models.TextMismatch{},
	}

	inputSet := make(map[string]bool, len(qs))
	inputIDs := []string{}
	for _, q := range qs {
		if q.Validate() != nil {
			continue
		}
		if !inputSet[q.OutlineID] {
			inputSet[q.OutlineID] = true
			inputIDs = append(inputIDs, q.OutlineID)
		}
		p, ok := byID[q.OutlineID]
		switch {
		case !ok:
			v.MissingInDoc = append(v.MissingInDoc, models.MissingInDoc{
				OutlineID:      q.OutlineID,
				ValidationText: q.ValidationText,
			})
		case q.Expected() != "" && !outline.TextMatches(p.Text, q.Expected()):
			v.TextMismatches = append(v.TextMismatches, models.TextMismatch{
				OutlineID: q.OutlineID,
				Expected:  q.Expected(),
				Found:     p.Text,
			})
		}
	}

	for _, id := range docIDs {
		if inputSet[id] {
			continue
		}
		p := byID[id]
		v.MissingInInput = append(v.MissingInInput, models.MissingInInput{
			OutlineID: id,
			DocText:   p.Text,
			HasAnswer: outline.LocateAnswer(paras, p).HasAnswer(),
		})
	}

	outline.SortIDs(docIDs)
	outline.SortIDs(inputIDs)
	v.DocIDs = docIDs
	v.InputIDs = inputIDs
	v.DocQuestionCount = len(docIDs)
	v.InputQuestionCount = len(inputIDs)
	return v
}
