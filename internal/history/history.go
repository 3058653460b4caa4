package history

import "github.com/starford/formfill/internal/models"

// RunStore defines the run history operations. Consumers depend on this
// interface rather than on *DB.
type RunStore interface {
	SaveRun(b *models.Bundle, checksum string) error
	GetRun(runID string) (*models.Bundle, error)
	ListRuns(limit, offset int, docID string) ([]models.RunMeta, int, error)
	DeleteRun(runID string) error
	SearchAnswers(query string, limit int) ([]AnswerHit, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ RunStore = (*DB)(nil)
