package filler

import (
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// InsertRequests builds the batch that adds answer as a new paragraph
// after question q. docEnd is the end offset of the body: a question that
// is the final paragraph gets its answer inserted before the final newline.
// The new paragraph loses any bullet it inherits and is indented
// opts.AnswerIndent points past the question.
func InsertRequests(q outline.Paragraph, answer string, docEnd int, opts Options) []models.Request {
	n := models.UTF16Len(answer)
	start := q.EndIndex

	var reqs []models.Request
	if q.EndIndex >= docEnd {
		reqs = append(reqs, models.InsertText(q.EndIndex-1, "\n"+answer))
	} else {
		reqs = append(reqs, models.InsertText(start, answer+"\n"))
	}
	reqs = append(reqs,
		models.DeleteBullets(start, start+n+1),
		models.SetIndent(start, start+n+1, q.IndentStart+opts.indent()),
	)
	if opts.AnswerColor != nil && n > 0 {
		reqs = append(reqs, models.SetForeground(start, start+n, *opts.AnswerColor))
	}
	return reqs
}

// ReplaceRequests builds the batch that swaps the text of an existing
// answer paragraph for answer. The paragraph's newline stays, so its
// indentation survives.
func ReplaceRequests(existing outline.Paragraph, answer string, opts Options) []models.Request {
	start := existing.StartIndex
	textEnd := existing.EndIndex - 1

	var reqs []models.Request
	if textEnd > start {
		reqs = append(reqs, models.DeleteContent(start, textEnd))
	}
	n := models.UTF16Len(answer)
	if n > 0 {
		reqs = append(reqs, models.InsertText(start, answer))
		if opts.AnswerColor != nil {
			reqs = append(reqs, models.SetForeground(start, start+n, *opts.AnswerColor))
		}
	}
	return reqs
}
