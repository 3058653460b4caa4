// Package formservice coordinates document sources, the filler and run
// history. The CLI, the REST API and the MCP server all go through it.
package formservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/filler"
	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/parser"
	"github.com/starford/formfill/internal/report"
	"github.com/starford/formfill/internal/storage"
)

// ResultsLayout is the timestamp layout of processed_<timestamp>.json.
const ResultsLayout = "2006-01-02-1504"

// Service coordinates storage, filler and history operations.
type Service struct {
	docs       storage.Provider
	vault      *storage.FS
	db         history.RunStore
	log        *slog.Logger
	obs        filler.Observer
	defaults   filler.Options
	resultsDir string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithVault enables document listing and import into vault.
func WithVault(v *storage.FS) Option { return func(s *Service) { s.vault = v } }

// WithHistory stores every run in db.
func WithHistory(db history.RunStore) Option { return func(s *Service) { s.db = db } }

// WithObserver reports fill progress to obs.
func WithObserver(obs filler.Observer) Option { return func(s *Service) { s.obs = obs } }

// WithDefaults sets the fill options used when a caller leaves them unset.
func WithDefaults(o filler.Options) Option { return func(s *Service) { s.defaults = o } }

// WithResultsDir writes a processed_<timestamp>.json file per run into dir.
func WithResultsDir(dir string) Option { return func(s *Service) { s.resultsDir = dir } }

// NewService creates a service reading documents from docs.
func NewService(docs storage.Provider, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{docs: docs, log: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Defaults returns the configured fill options.
func (s *Service) Defaults() filler.Options { return s.defaults }

func (s *Service) filler() *filler.Filler {
	return filler.New(s.docs, s.log).WithObserver(s.obs)
}

// Structure returns the annotated paragraphs of docID. With outlineOnly
// set, only paragraphs carrying an outline ID are returned.
func (s *Service) Structure(ctx context.Context, docID string, mode outline.Mode, outlineOnly bool) ([]outline.Paragraph, outline.Mode, error) {
	paras, used, err := s.filler().Structure(ctx, docID, s.mode(mode))
	if err != nil {
		return nil, "", err
	}
	if outlineOnly {
		paras = outline.Questions(paras)
	}
	return nonNilSlice(paras), used, nil
}

// Analyze compares qs against docID without writing.
func (s *Service) Analyze(ctx context.Context, docID string, qs []models.Question, mode outline.Mode) ([]filler.Analysis, filler.AnalysisSummary, error) {
	res, err := s.filler().Analyze(ctx, docID, qs, s.mode(mode))
	if err != nil {
		return nil, filler.AnalysisSummary{}, err
	}
	return res, filler.Summarize(res), nil
}

// Fill runs a fill and records it. A bundle is returned, and saved, even
// when the run aborts part way.
func (s *Service) Fill(ctx context.Context, docID string, qs []models.Question, opts filler.Options) (*models.Bundle, error) {
	opts = s.merge(opts)
	b, runErr := s.filler().Run(ctx, docID, qs, opts)
	if b == nil || b.Mode == "" {
		// The document was never read.
		return b, runErr
	}
	if err := s.record(b); err != nil {
		s.log.Error("record run failed", slog.String("run_id", b.RunID), slog.String("error", err.Error()))
		if runErr == nil {
			runErr = err
		}
	}
	return b, runErr
}

func (s *Service) record(b *models.Bundle) error {
	var errs []error
	if s.resultsDir != "" {
		path, err := s.WriteResults(s.resultsDir, b)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.log.Info("results saved", slog.String("path", path))
		}
	}
	if s.db != nil {
		if err := s.db.SaveRun(b, ""); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteResults writes b as processed_<timestamp>.json into dir and returns
// the file path.
func (s *Service) WriteResults(dir string, b *models.Bundle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("formservice: create results dir: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formservice: encode results: %w", err)
	}
	path := filepath.Join(dir, "processed_"+s.now().Format(ResultsLayout)+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("formservice: write results: %w", err)
	}
	return path, nil
}

// mode resolves a per-call override. Only the empty mode falls back to
// the configured default; an explicit auto forces detection.
func (s *Service) mode(m outline.Mode) outline.Mode {
	if m != "" {
		return m
	}
	if s.defaults.Mode != "" {
		return s.defaults.Mode
	}
	return outline.ModeAuto
}

func (s *Service) merge(o filler.Options) filler.Options {
	o.Mode = s.mode(o.Mode)
	if o.AnswerColor == nil {
		o.AnswerColor = s.defaults.AnswerColor
	}
	if o.AnswerIndent == nil {
		o.AnswerIndent = s.defaults.AnswerIndent
	}
	return o
}

// Runs lists stored runs, newest first.
func (s *Service) Runs(_ context.Context, limit, offset int, docID string) ([]models.RunMeta, int, error) {
	if s.db == nil {
		return []models.RunMeta{}, 0, nil
	}
	return s.db.ListRuns(limit, offset, docID)
}

// Run returns a stored run.
func (s *Service) Run(_ context.Context, runID string) (*models.Bundle, error) {
	if s.db == nil {
		return nil, fmt.Errorf("formservice: run %s: %w", runID, apperr.ErrNotFound)
	}
	return s.db.GetRun(runID)
}

// DeleteRun removes a stored run.
func (s *Service) DeleteRun(_ context.Context, runID string) error {
	if s.db == nil {
		return fmt.Errorf("formservice: run %s: %w", runID, apperr.ErrNotFound)
	}
	return s.db.DeleteRun(runID)
}

// SearchAnswers searches the answers of stored runs.
func (s *Service) SearchAnswers(_ context.Context, query string, limit int) ([]history.AnswerHit, error) {
	if s.db == nil {
		return []history.AnswerHit{}, nil
	}
	return s.db.SearchAnswers(query, limit)
}

// Report renders a stored run as "md" or "html" and returns the content
// type along with the body.
func (s *Service) Report(ctx context.Context, runID, format string) ([]byte, string, error) {
	b, err := s.Run(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	switch format {
	case "", "md", "markdown":
		err = report.Markdown(&buf, b, report.Options{})
		return buf.Bytes(), "text/markdown; charset=utf-8", err
	case "html":
		err = report.HTML(&buf, b, report.Options{})
		return buf.Bytes(), "text/html; charset=utf-8", err
	}
	return nil, "", fmt.Errorf("formservice: report format %q: %w", format, apperr.ErrUnsupportedFormat)
}

// Documents lists the documents of the vault.
func (s *Service) Documents(ctx context.Context) ([]models.DocumentMeta, error) {
	if s.vault == nil {
		return []models.DocumentMeta{}, nil
	}
	metas, err := s.vault.List(ctx)
	return nonNilSlice(metas), err
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Import parses a local form file and stores it in the vault under id, or
// under a name derived from the file when id is empty. An existing
// document is only replaced when overwrite is set.
func (s *Service) Import(ctx context.Context, path, id string, overwrite bool) (*models.DocumentMeta, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("formservice: import: no vault configured")
	}
	doc, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, doc, path, id, overwrite)
}

// ImportData is Import for uploaded content. The content must match the
// format named by filename's extension.
func (s *Service) ImportData(ctx context.Context, filename string, data []byte, id string, overwrite bool) (*models.DocumentMeta, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("formservice: import: no vault configured")
	}
	doc, err := parser.ParseBytes(data, filename)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, doc, filename, id, overwrite)
}

func (s *Service) store(ctx context.Context, doc *models.Document, source, id string, overwrite bool) (*models.DocumentMeta, error) {
	if id == "" {
		base := filepath.Base(source)
		id = unsafeIDChars.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "-")
	}
	if !overwrite {
		if _, err := s.vault.Get(ctx, id); err == nil {
			return nil, fmt.Errorf("formservice: document %s: %w", id, apperr.ErrAlreadyExists)
		}
	}
	doc.DocumentID = id
	if err := s.vault.Put(doc); err != nil {
		return nil, err
	}
	stored, err := s.vault.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("document imported", slog.String("source", source), slog.String("doc_id", id))
	return &models.DocumentMeta{ID: id, Title: stored.Title, RevisionID: stored.RevisionID, UpdatedAt: s.now().UTC()}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
