//go:build !sqlite_fts5

package history

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the answers table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// SearchAnswers performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) SearchAnswers(query string, limit int) ([]AnswerHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT a.run_id, r.doc_id, a.outline_id, a.status, substr(a.answer, 1, 200)
		FROM answers a
		JOIN runs r ON r.run_id = a.run_id
		WHERE a.answer LIKE ? OR a.question LIKE ?
		ORDER BY r.created_at DESC
		LIMIT ?
	`, like, like, limit)
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
