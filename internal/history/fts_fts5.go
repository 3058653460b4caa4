//go:build sqlite_fts5

package history

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS answers_fts USING fts5(
			run_id UNINDEXED,
			outline_id UNINDEXED,
			question,
			answer,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, runID, outlineID, question, answer string) error {
	_, err := tx.Exec(`INSERT INTO answers_fts (run_id, outline_id, question, answer) VALUES (?, ?, ?, ?)`,
		runID, outlineID, question, answer)
	if err != nil {
		return fmt.Errorf("history: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, runID string) {
	_, _ = tx.Exec(`DELETE FROM answers_fts WHERE run_id = ?`, runID)
}

// SearchAnswers performs an FTS5 search over stored questions and answers.
func (db *DB) SearchAnswers(query string, limit int) ([]AnswerHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.run_id,
		       r.doc_id,
		       f.outline_id,
		       a.status,
		       snippet(answers_fts, 3, '<b>', '</b>', '...', 32)
		FROM answers_fts f
		JOIN runs r ON r.run_id = f.run_id
		JOIN answers a ON a.run_id = f.run_id AND a.outline_id = f.outline_id
		WHERE answers_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()

	out := []AnswerHit{}
	for rows.Next() {
		var h AnswerHit
		if err := rows.Scan(&h.RunID, &h.DocID, &h.OutlineID, &h.Status, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
