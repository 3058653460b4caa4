package report

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/formfill/internal/models"
)

// Summary prints the condensed CLI summary of b to w. Validation warnings
// go to log instead, so w stays clean for piping.
func Summary(w io.Writer, b *models.Bundle, log *slog.Logger) {
	v := b.Validation
	for _, m := range v.MissingInDoc {
		text := "(no text)"
		if m.ValidationText != nil && *m.ValidationText != "" {
			text = clip(*m.ValidationText, 50)
		}
		log.Warn("input question not found in document", slog.String("outline_id", m.OutlineID), slog.String("text", text))
	}
	for _, m := range v.MissingInInput {
		log.Warn("document question not in input", slog.String("outline_id", m.OutlineID), slog.String("text", clip(m.DocText, 50)))
	}
	for _, m := range v.TextMismatches {
		log.Warn("question text mismatch",
			slog.String("outline_id", m.OutlineID),
			slog.String("expected", clip(m.Expected, 40)),
			slog.String("found", clip(m.Found, 40)),
		)
	}

	var processed, skipped int
	var mismatches, errs []models.Result
	for _, r := range b.Results {
		switch r.Status {
		case models.StatusSkipped:
			skipped++
		case models.StatusError:
			errs = append(errs, r)
		case models.StatusReplaced, models.StatusWouldReplace:
			processed++
			mismatches = append(mismatches, r)
		case models.StatusInserted, models.StatusWouldInsert, models.StatusNoChange:
			processed++
		}
	}

	fmt.Fprintln(w, "\n=== Validation Summary ===")
	fmt.Fprintf(w, "Document questions: %d\n", v.DocQuestionCount)
	fmt.Fprintf(w, "Input questions: %d\n", v.InputQuestionCount)
	fmt.Fprintf(w, "Missing in doc: %d\n", len(v.MissingInDoc))
	fmt.Fprintf(w, "Missing in input: %d\n", len(v.MissingInInput))
	fmt.Fprintf(w, "Text mismatches: %d\n", len(v.TextMismatches))

	fmt.Fprintln(w, "\n=== Processing Results ===")
	fmt.Fprintf(w, "Processed: %d\n", processed)
	fmt.Fprintf(w, "Skipped: %d\n", skipped)
	fmt.Fprintf(w, "Answer mismatches: %d\n", len(mismatches))
	fmt.Fprintf(w, "Errors: %d\n", len(errs))

	if len(mismatches) > 0 {
		fmt.Fprintln(w, "\n=== Mismatches ===")
		for _, m := range mismatches {
			fmt.Fprintf(w, "\nOutline %s:\n", m.OutlineID)
			fmt.Fprintf(w, "  Question: %s\n", m.Question)
			fmt.Fprintf(w, "  Existing: %s\n", ellipsis(m.PreviousAnswer, 100))
			fmt.Fprintf(w, "  New: %s\n", ellipsis(m.NewAnswer, 100))
		}
	}
	if len(errs) > 0 {
		fmt.Fprintln(w, "\n=== Errors ===")
		for _, e := range errs {
			fmt.Fprintf(w, "  %s: %s\n", e.OutlineID, e.Error)
		}
	}
}

func ellipsis(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return clip(s, n) + "..."
}
