package history

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "formfill-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func bundle(runID, docID string, at time.Time) *models.Bundle {
	return &models.Bundle{
		DocID:     docID,
		RunID:     runID,
		Mode:      "native_bullets",
		CreatedAt: at,
		Results: []models.Result{
			{OutlineID: "1", Status: models.StatusInserted, Actions: []string{"inserted"}, Question: "Name?", NewAnswer: "Ada Lovelace"},
			{OutlineID: "2", Status: models.StatusNoChange, Actions: []string{}, Question: "Age?", MatchedText: "36"},
			{OutlineID: "3", Status: models.StatusSkipped, Actions: []string{}, Reason: "No answer provided"},
		},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM answers`).Scan(&count); err != nil {
		t.Fatalf("answers table missing: %v", err)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := testDB(t)
	b := bundle("r1", "form", time.Now().UTC())
	if err := db.SaveRun(b, ""); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := db.GetRun("r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.DocID != "form" || len(got.Results) != 3 || got.Results[0].NewAnswer != "Ada Lovelace" {
		t.Errorf("bundle = %+v", got)
	}

	var answers int
	_ = db.conn.QueryRow(`SELECT count(*) FROM answers WHERE run_id = 'r1'`).Scan(&answers)
	if answers != 2 {
		t.Errorf("answers stored = %d, want 2", answers)
	}
}

func TestSaveRun_MissingRunID(t *testing.T) {
	db := testDB(t)
	if err := db.SaveRun(&models.Bundle{DocID: "x"}, ""); err == nil {
		t.Error("expected error for bundle without run id")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetRun("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = db.SaveRun(bundle("old", "form", base), "")
	_ = db.SaveRun(bundle("new", "form", base.Add(time.Hour)), "")
	_ = db.SaveRun(bundle("other", "memo", base.Add(2*time.Hour)), "")

	rows, total, err := db.ListRuns(10, 0, "form")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d rows = %d, want 2", total, len(rows))
	}
	if rows[0].RunID != "new" || rows[1].RunID != "old" {
		t.Errorf("order = %s, %s", rows[0].RunID, rows[1].RunID)
	}
	if rows[0].Counts[models.StatusInserted] != 1 || rows[0].Counts[models.StatusSkipped] != 1 {
		t.Errorf("counts = %v", rows[0].Counts)
	}

	rows, total, _ = db.ListRuns(1, 0, "")
	if total != 3 || len(rows) != 1 || rows[0].RunID != "other" {
		t.Errorf("limited list = %+v (total %d)", rows, total)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	db := testDB(t)
	b := bundle("r1", "form", time.Now().UTC())
	_ = db.SaveRun(b, "")
	b.Results = b.Results[:1]
	b.Results[0].NewAnswer = "Grace Hopper"
	if err := db.SaveRun(b, ""); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	hits, _ := db.SearchAnswers("Lovelace", 10)
	if len(hits) != 0 {
		t.Errorf("stale answer still searchable: %+v", hits)
	}
	hits, _ = db.SearchAnswers("Hopper", 10)
	if len(hits) != 1 || hits[0].OutlineID != "1" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestDeleteRun(t *testing.T) {
	db := testDB(t)
	_ = db.SaveRun(bundle("r1", "form", time.Now().UTC()), "")
	if err := db.DeleteRun("r1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := db.GetRun("r1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("run still present: %v", err)
	}
	if err := db.DeleteRun("r1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSearchAnswers_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.SaveRun(bundle("r1", "form", time.Now().UTC()), "")

	hits, err := db.SearchAnswers("Lovelace", 10)
	if err != nil {
		t.Fatalf("SearchAnswers: %v", err)
	}
	if len(hits) != 1 || hits[0].RunID != "r1" || hits[0].DocID != "form" || hits[0].Status != "inserted" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	withID, _ := json.Marshal(bundle("r1", "form", time.Now().UTC()))
	noID, _ := json.Marshal(models.Bundle{DocID: "memo", Results: []models.Result{}})
	_ = os.WriteFile(filepath.Join(dir, "processed_2026-03-01-1000.json"), withID, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "processed_2026-03-01-1100.json"), noID, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "processed_broken.json"), []byte("{"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "questions.json"), withID, 0o644)

	n, err := Sync(db, dir, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}
	if _, err := db.GetRun("r1"); err != nil {
		t.Errorf("r1 not imported: %v", err)
	}
	_, total, _ := db.ListRuns(10, 0, "memo")
	if total != 1 {
		t.Errorf("memo runs = %d, want 1", total)
	}

	n, _ = Sync(db, dir, logger)
	if n != 0 {
		t.Errorf("second sync imported %d, want 0", n)
	}
}
