package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// AnswerHit is one answer matching a search.
type AnswerHit struct {
	RunID     string `json:"run_id"`
	DocID     string `json:"doc_id"`
	OutlineID string `json:"outline_id"`
	Status    string `json:"status"`
	Snippet   string `json:"snippet"`
}

// SaveRun stores b and its answers within a transaction. Saving a run ID
// again replaces the earlier copy. checksum identifies the results file the
// bundle came from, if any.
func (db *DB) SaveRun(b *models.Bundle, checksum string) error {
	if b.RunID == "" {
		return fmt.Errorf("history: save run: missing run id")
	}
	bundle, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("history: marshal bundle: %w", err)
	}
	countsJSON, _ := json.Marshal(b.StatusCounts())

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, doc_id, mode, dry_run, has_errors, counts, checksum, bundle, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			doc_id     = excluded.doc_id,
			mode       = excluded.mode,
			dry_run    = excluded.dry_run,
			has_errors = excluded.has_errors,
			counts     = excluded.counts,
			checksum   = excluded.checksum,
			bundle     = excluded.bundle,
			created_at = excluded.created_at
	`, b.RunID, b.DocID, b.Mode, b.DryRun, b.HasErrors(), string(countsJSON), checksum, string(bundle), b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("history: upsert run: %w", err)
	}

	ftsDelete(tx, b.RunID)
	_, _ = tx.Exec(`DELETE FROM answers WHERE run_id = ?`, b.RunID)
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO answers (run_id, outline_id, status, question, answer) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare answer insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range b.Results {
		answer := answerOf(r)
		if answer == "" {
			continue
		}
		if _, err := stmt.Exec(b.RunID, r.OutlineID, string(r.Status), r.Question, answer); err != nil {
			return fmt.Errorf("history: insert answer: %w", err)
		}
		if err := ftsUpsert(tx, b.RunID, r.OutlineID, r.Question, answer); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// answerOf picks the answer text a result records.
func answerOf(r models.Result) string {
	switch {
	case r.NewAnswer != "":
		return r.NewAnswer
	case r.MatchedText != "":
		return r.MatchedText
	}
	return r.ExistingAnswer
}

// GetRun returns the stored bundle of runID.
func (db *DB) GetRun(runID string) (*models.Bundle, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT bundle FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history: run %s: %w", runID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("history: get run: %w", err)
	}
	var b models.Bundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("history: decode run %s: %w", runID, err)
	}
	return &b, nil
}

// ListRuns returns runs newest first, optionally only those of docID, plus
// the total number of matching runs.
func (db *DB) ListRuns(limit, offset int, docID string) ([]models.RunMeta, int, error) {
	if limit <= 0 {
		limit = 20
	}
	where, args := "", []any{}
	if docID != "" {
		where = "WHERE doc_id = ?"
		args = append(args, docID)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count runs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT run_id, doc_id, mode, dry_run, has_errors, counts, created_at
		FROM runs `+where+`
		ORDER BY created_at DESC, run_id
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	out := []models.RunMeta{}
	for rows.Next() {
		var r models.RunMeta
		var counts string
		if err := rows.Scan(&r.RunID, &r.DocID, &r.Mode, &r.DryRun, &r.HasErrors, &counts, &r.CreatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(counts), &r.Counts)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// DeleteRun removes a run and its answers.
func (db *DB) DeleteRun(runID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, runID)
	_, _ = tx.Exec(`DELETE FROM answers WHERE run_id = ?`, runID)
	res, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("history: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("history: run %s: %w", runID, apperr.ErrNotFound)
	}
	return tx.Commit()
}

// AllChecksums maps the checksum of every imported results file to its run.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT checksum, run_id FROM runs WHERE checksum != ''`)
	if err != nil {
		return nil, fmt.Errorf("history: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var cs, id string
		if err := rows.Scan(&cs, &id); err != nil {
			return nil, err
		}
		out[cs] = id
	}
	return out, rows.Err()
}
