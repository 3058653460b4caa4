// Package report renders result bundles as a Markdown report, an HTML page
// or a condensed CLI summary.
package report

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/parser"
)

// TruncateAt is the number of characters of an answer shown in a table cell.
const TruncateAt = 25

// Options control the links at the top of a report.
type Options struct {
	// DocID overrides the bundle's document ID.
	DocID string
	// JSONFile is the results file the report links to. Empty omits the link.
	JSONFile string
}

// DocURL returns a link to the document: the Google Docs editor for remote
// documents, the path itself for local files.
func DocURL(docID string) string {
	if parser.IsSupportedExtension(docID) {
		return docID
	}
	return "https://docs.google.com/document/d/" + docID + "/edit"
}

var actionLabels = map[models.Status]string{
	models.StatusInserted:     "inserted",
	models.StatusWouldInsert:  "would insert",
	models.StatusReplaced:     "replaced",
	models.StatusWouldReplace: "would replace",
	models.StatusNoChange:     "no change",
	models.StatusSkipped:      "skipped",
	models.StatusNotFound:     "not found",
	models.StatusError:        "error",
	models.StatusNotInInput:   "—",
}

// Markdown writes the report for b to w.
func Markdown(w io.Writer, b *models.Bundle, opts Options) error {
	docID := opts.DocID
	if docID == "" {
		docID = b.DocID
	}
	v := b.Validation

	var sb strings.Builder
	sb.WriteString("# Form Filler Results\n\n## Links\n\n")
	fmt.Fprintf(&sb, "- [Open document](%s)\n", DocURL(docID))
	if opts.JSONFile != "" {
		fmt.Fprintf(&sb, "- [View JSON](%s)\n", path.Base(opts.JSONFile))
	}

	sb.WriteString("\n## Validation Summary\n\n| Metric | Count |\n|--------|-------|\n")
	fmt.Fprintf(&sb, "| Document questions | %d |\n", v.DocQuestionCount)
	fmt.Fprintf(&sb, "| Input questions | %d |\n", v.InputQuestionCount)
	fmt.Fprintf(&sb, "| Missing in doc | %d |\n", len(v.MissingInDoc))
	fmt.Fprintf(&sb, "| Missing in input | %d |\n", len(v.MissingInInput))
	fmt.Fprintf(&sb, "| Text mismatches | %d |\n", len(v.TextMismatches))

	sb.WriteString("\n## Processing Results\n\n| ID | Input | Doc | Action | Details |\n|----|-------|-----|--------|---------|\n")
	for _, r := range b.Results {
		fmt.Fprintf(&sb, "| **%s** | %s | %s | %s | %s |\n",
			cell(r.OutlineID), inputCell(r), docCell(r), actionLabel(r.Status), cell(details(r)))
	}

	fmt.Fprintf(&sb, "\n---\n\n**Total: %d**", len(b.Results))
	for _, part := range StatusTotals(b) {
		sb.WriteString(" | " + part)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// StatusTotals lists "status: count" for every status present, sorted by
// status name.
func StatusTotals(b *models.Bundle) []string {
	counts := b.StatusCounts()
	keys := make([]string, 0, len(counts))
	for s := range counts {
		keys = append(keys, string(s))
	}
	slices.Sort(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s: %d", k, counts[models.Status(k)])
	}
	return out
}

func inputCell(r models.Result) string {
	switch r.Status {
	case models.StatusInserted, models.StatusWouldInsert, models.StatusReplaced, models.StatusWouldReplace:
		return truncate(r.NewAnswer)
	case models.StatusNoChange:
		return truncate(r.MatchedText)
	case models.StatusSkipped:
		return "_(no answer)_"
	case models.StatusNotFound:
		return "_(provided)_"
	}
	return "—"
}

func docCell(r models.Result) string {
	switch r.Status {
	case models.StatusReplaced, models.StatusWouldReplace:
		return truncate(r.PreviousAnswer)
	case models.StatusNoChange:
		return truncate(r.MatchedText)
	case models.StatusNotInInput, models.StatusSkipped:
		if r.ExistingAnswer != "" {
			return truncate(r.ExistingAnswer)
		}
	}
	return "_(blank)_"
}

func details(r models.Result) string {
	switch {
	case r.Warning != "":
		return "⚠ " + clip(r.Warning, 40) + "..."
	case r.Status == models.StatusError:
		return r.Error
	case r.Status == models.StatusSkipped, r.Status == models.StatusNotFound:
		return r.Reason
	}
	return ""
}

func actionLabel(s models.Status) string {
	if l, ok := actionLabels[s]; ok {
		return l
	}
	return string(s)
}

// truncate shows text as code, clipped to TruncateAt characters with the
// full length appended when clipped.
func truncate(text string) string {
	if text == "" {
		return "_(blank)_"
	}
	n := len([]rune(text))
	if n > TruncateAt {
		return fmt.Sprintf("`%s...` (%d)", cell(clip(text, TruncateAt)), n)
	}
	return "`" + cell(text) + "`"
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
