package report

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/formfill/internal/models"
)

func str(s string) *string { return &s }

func sampleBundle() *models.Bundle {
	yes := true
	return &models.Bundle{
		DocID: "abc123",
		Validation: models.Validation{
			DocQuestionCount:   4,
			InputQuestionCount: 4,
			MissingInDoc:       []models.MissingInDoc{{OutlineID: "99", ValidationText: str("Favourite colour")}},
			MissingInInput:     []models.MissingInInput{{OutlineID: "4", DocText: "Signature", HasAnswer: true}},
			TextMismatches:     []models.TextMismatch{},
		},
		Results: []models.Result{
			{OutlineID: "1", Status: models.StatusInserted, NewAnswer: "Ada"},
			{OutlineID: "2", Status: models.StatusReplaced, Question: "Bio?", PreviousAnswer: "Old", NewAnswer: "A very long answer that keeps going"},
			{OutlineID: "3", Status: models.StatusNoChange, MatchedText: "36"},
			{OutlineID: "3a", Status: models.StatusInserted, NewAnswer: "x", Warning: "Could not reliably detect existing answer. This is the last question."},
			{OutlineID: "99", Status: models.StatusNotFound, Reason: "Question not found for outline 99"},
			{OutlineID: "5", Status: models.StatusError, Error: "boom"},
			{OutlineID: "4", Status: models.StatusNotInInput, HasAnswer: &yes, ExistingAnswer: "J. Doe"},
		},
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, sampleBundle(), Options{JSONFile: "out/processed_2026-01-01-1200.json"}); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"[Open document](https://docs.google.com/document/d/abc123/edit)",
		"[View JSON](processed_2026-01-01-1200.json)",
		"| Missing in doc | 1 |",
		"| **1** | `Ada` | _(blank)_ | inserted |  |",
		"| **2** | `A very long answer that k...` (35) | `Old` | replaced |  |",
		"| **3** | `36` | `36` | no change |  |",
		"| **3a** | `x` | _(blank)_ | inserted | ⚠ Could not reliably detect existing answe... |",
		"| **99** | _(provided)_ | _(blank)_ | not found | Question not found for outline 99 |",
		"| **5** | — | _(blank)_ | error | boom |",
		"| **4** | — | `J. Doe` | — |  |",
		"**Total: 7** | error: 1 | inserted: 2 | no_change: 1 | not_found: 1 | not_in_input: 1 | replaced: 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}
}

func TestMarkdown_LocalFileLink(t *testing.T) {
	b := sampleBundle()
	b.DocID = "forms/intake.docx"
	var buf bytes.Buffer
	_ = Markdown(&buf, b, Options{})
	if !strings.Contains(buf.String(), "[Open document](forms/intake.docx)") {
		t.Errorf("local link missing:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "View JSON") {
		t.Error("JSON link without a file")
	}
}

func TestCellEscapesPipes(t *testing.T) {
	if got := truncate("a|b\nc"); got != "`a\\|b c`" {
		t.Errorf("truncate = %q", got)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, sampleBundle(), Options{}); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "<table>", "<td><strong>1</strong></td>", "<h1>Form Filler Results</h1>"} {
		if !strings.Contains(got, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestSummary(t *testing.T) {
	var out, logs bytes.Buffer
	Summary(&out, sampleBundle(), slog.New(slog.NewTextHandler(&logs, nil)))

	got := out.String()
	for _, want := range []string{
		"Document questions: 4",
		"Missing in doc: 1",
		"Processed: 4",
		"Answer mismatches: 1",
		"Errors: 1",
		"Outline 2:",
		"  Question: Bio?",
		"  5: boom",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q\n%s", want, got)
		}
	}
	if !strings.Contains(logs.String(), "outline_id=99") || !strings.Contains(logs.String(), "outline_id=4") {
		t.Errorf("validation warnings not logged: %s", logs.String())
	}
}

func TestSummary_Quiet(t *testing.T) {
	var out bytes.Buffer
	b := &models.Bundle{Results: []models.Result{}}
	Summary(&out, b, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if strings.Contains(out.String(), "Mismatches") || strings.Contains(out.String(), "=== Errors") {
		t.Errorf("unexpected sections:\n%s", out.String())
	}
}
