package history

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/formfill/internal/checksum"
	"github.com/starford/formfill/internal/models"
)

// Sync imports every results file in dir that history does not yet hold:
//   - unchanged files (same checksum) are skipped
//   - bundles without a run ID get one derived from their checksum
//
// It returns the number of runs imported.
func Sync(db RunStore, dir string, logger *slog.Logger) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "processed_*.json"))
	if err != nil {
		return 0, err
	}
	known, err := db.AllChecksums()
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		cs := checksum.Sum(data)
		if _, ok := known[cs]; ok {
			continue
		}
		if err := importFile(db, path, data, cs); err != nil {
			logger.Warn("sync: import failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: imported", slog.String("path", path))
		imported++
	}
	return imported, nil
}

func importFile(db RunStore, path string, data []byte, cs string) error {
	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	if b.RunID == "" {
		b.RunID = "file-" + cs[:12]
	}
	if b.DocID == "" {
		b.DocID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if b.CreatedAt.IsZero() {
		if fi, err := os.Stat(path); err == nil {
			b.CreatedAt = fi.ModTime().UTC()
		}
	}
	return db.SaveRun(&b, cs)
}
