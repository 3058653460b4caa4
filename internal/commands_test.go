package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/testutil"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()
	vaultDir, vault := testutil.TestVault(t)
	testutil.PutDoc(t, vault, testutil.Doc("form",
		testutil.Item(0, "Name?"), testutil.Item(0, "Age?"),
	))

	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.SQLite.Path = filepath.Join(dir, "formfill.db")
	cfg.Fill.ResultsDir = filepath.Join(dir, "results")

	var out bytes.Buffer
	app, err := New(
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		WithOutput(&out, io.Discard),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, &out, dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestFillCommand(t *testing.T) {
	app, out, dir := newTestApp(t)
	qs := writeFile(t, dir, "answers.json", `[{"outline_id": "1", "answer": "Ada"}, {"outline_id": "2", "answer": 36}]`)
	reportPath := filepath.Join(dir, "report.md")

	err := app.Fill(context.Background(), FillParams{DocID: "form", Questions: qs, Report: reportPath})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if !strings.Contains(out.String(), "Processed: 2") {
		t.Errorf("summary = %q", out.String())
	}

	files, _ := filepath.Glob(filepath.Join(dir, "results", "processed_*.json"))
	if len(files) != 1 {
		t.Fatalf("results files = %v", files)
	}
	md, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(md), filepath.Base(files[0])) {
		t.Errorf("report does not link the results file:\n%s", md)
	}

	doc, err := app.vault.Get(context.Background(), "form")
	if err != nil {
		t.Fatal(err)
	}
	texts := strings.Join(testutil.Texts(doc), "|")
	if !strings.Contains(texts, "Ada") || !strings.Contains(texts, "36") {
		t.Errorf("document = %s", texts)
	}

	out.Reset()
	if err := app.History(context.Background(), 10, "", false); err != nil {
		t.Fatalf("History: %v", err)
	}
	if !strings.Contains(out.String(), "form") || !strings.Contains(out.String(), "1 of 1 runs") {
		t.Errorf("history = %q", out.String())
	}
}

func TestFillCommandJSONDryRun(t *testing.T) {
	app, out, dir := newTestApp(t)
	qs := writeFile(t, dir, "answers.yaml", "- outline_id: \"1\"\n  answer: Ada\n")

	err := app.Fill(context.Background(), FillParams{DocID: "form", Questions: qs, DryRun: true, JSON: true, NoSave: true})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	var b models.Bundle
	if err := json.Unmarshal(out.Bytes(), &b); err != nil {
		t.Fatalf("output is not a bundle: %v\n%s", err, out.String())
	}
	if !b.DryRun {
		t.Error("bundle not marked as dry run")
	}
	for _, r := range b.Results {
		if r.OutlineID == "1" && r.Status != models.StatusWouldInsert {
			t.Errorf("status of 1 = %s", r.Status)
		}
	}
	if files, _ := filepath.Glob(filepath.Join(dir, "results", "*.json")); len(files) != 0 {
		t.Errorf("--no-save wrote %v", files)
	}
}

func TestFillCommandErrors(t *testing.T) {
	app, _, dir := newTestApp(t)
	ctx := context.Background()

	if err := app.Fill(ctx, FillParams{DocID: "form", Questions: filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing question file")
	}

	qs := writeFile(t, dir, "answers.json", `[{"outline_id": "1", "answer": "Ada"}]`)
	if err := app.Fill(ctx, FillParams{DocID: "nope", Questions: qs}); err == nil || errors.Is(err, ErrRunHasErrors) {
		t.Errorf("missing document err = %v", err)
	}
}

func TestAnalyzeAndDump(t *testing.T) {
	app, out, dir := newTestApp(t)
	qs := writeFile(t, dir, "answers.json", `[{"outline_id": "1", "validation_text": "name", "answer": "Ada"}, {"outline_id": "9"}]`)

	if err := app.Analyze(context.Background(), "form", qs, ""); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(out.String(), `"id": "9"`) {
		t.Errorf("analyze output = %s", out.String())
	}

	out.Reset()
	if err := app.Dump(context.Background(), "form", "", true); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	var paras []map[string]any
	if err := json.Unmarshal(out.Bytes(), &paras); err != nil {
		t.Fatalf("dump output: %v", err)
	}
	if len(paras) != 2 {
		t.Errorf("paragraphs = %v", paras)
	}
}

func TestReportCommand(t *testing.T) {
	app, out, dir := newTestApp(t)
	b := models.Bundle{
		DocID:   "form",
		Mode:    "native",
		Results: []models.Result{{OutlineID: "1", Question: "Name?", Status: models.StatusInserted, NewAnswer: "Ada"}},
	}
	data, _ := json.Marshal(b)
	results := writeFile(t, dir, "processed_x.json", string(data))

	if err := app.Report(ReportParams{Results: results}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !strings.Contains(out.String(), "| **1** | `Ada` |") {
		t.Errorf("markdown = %s", out.String())
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := app.Report(ReportParams{Results: results, Output: htmlPath, HTML: true}); err != nil {
		t.Fatalf("Report html: %v", err)
	}
	html, _ := os.ReadFile(htmlPath)
	if !strings.Contains(string(html), "<html") {
		t.Errorf("html = %s", html)
	}

	bad := writeFile(t, dir, "bad.json", "{")
	if err := app.Report(ReportParams{Results: bad}); err == nil {
		t.Error("expected decode error")
	}
}

func TestConvertCommand(t *testing.T) {
	app, out, dir := newTestApp(t)
	csvPath := writeFile(t, dir, "q.csv", "#,##,Question,Answer\n1,,Name?,Ada\n1,a,First?,A\n")

	if err := app.Convert(csvPath, "", true); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	got := strings.TrimSpace(out.String())
	if strings.Contains(got, "\n") || !strings.Contains(got, `"questions"`) {
		t.Errorf("compact output = %s", got)
	}
}

func TestImportCommand(t *testing.T) {
	app, out, dir := newTestApp(t)
	src := writeFile(t, dir, "Intake Form.md", "# Intake\n\n1. Name?\n2. Age?\n")

	if err := app.Import(context.Background(), src, "", false); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !strings.Contains(out.String(), "imported") {
		t.Errorf("output = %q", out.String())
	}
	if err := app.Import(context.Background(), src, "", false); err == nil {
		t.Error("second import without overwrite should fail")
	}
}
