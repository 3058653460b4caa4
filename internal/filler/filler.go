// Package filler reconciles an input question list against a document and
// writes the answers. Every question that may write re-reads the document
// first, because each insert or replace shifts the offsets of everything
// after it.
package filler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
	"github.com/starford/formfill/internal/storage"
)

// DefaultAnswerIndent is added to a question's indent to place its answer.
const DefaultAnswerIndent = 36

// Options control how answers are written. They are passed explicitly so
// concurrent runs can use different settings.
type Options struct {
	Mode        outline.Mode
	AnswerColor *models.RGBColor
	DryRun      bool

	// AnswerIndent is added to the question's indent. Nil means
	// DefaultAnswerIndent; zero aligns the answer with the question.
	AnswerIndent *float64
}

// Indent returns p as an AnswerIndent value.
func Indent(p float64) *float64 { return &p }

func (o Options) indent() float64 {
	if o.AnswerIndent == nil {
		return DefaultAnswerIndent
	}
	return *o.AnswerIndent
}

// Observer receives run progress. Methods are called synchronously from
// the goroutine running the fill.
type Observer interface {
	RunStarted(b *models.Bundle, total int)
	QuestionProcessed(b *models.Bundle, index, total int, r models.Result)
	RunCompleted(b *models.Bundle, err error)
}

// Filler runs fills against one document provider.
type Filler struct {
	docs storage.Provider
	log  *slog.Logger
	obs  Observer
	now  func() time.Time
}

// New creates a Filler. A nil logger uses slog.Default().
func New(docs storage.Provider, log *slog.Logger) *Filler {
	if log == nil {
		log = slog.Default()
	}
	return &Filler{docs: docs, log: log, obs: nopObserver{}, now: time.Now}
}

// WithObserver sets the progress observer and returns f.
func (f *Filler) WithObserver(obs Observer) *Filler {
	if obs == nil {
		obs = nopObserver{}
	}
	f.obs = obs
	return f
}

// Structure reads docID and returns its annotated paragraphs.
func (f *Filler) Structure(ctx context.Context, docID string, mode outline.Mode) ([]outline.Paragraph, outline.Mode, error) {
	doc, err := f.docs.Get(ctx, docID)
	if err != nil {
		return nil, "", fmt.Errorf("filler: read %s: %w", docID, err)
	}
	paras, used := outline.Structure(doc, mode)
	return paras, used, nil
}

// Run validates qs against the document, processes every entry in input
// order and appends a not_in_input entry for each document question the
// input never mentions. When the remote service keeps rate limiting, the
// run stops and the partial bundle is returned with the error.
func (f *Filler) Run(ctx context.Context, docID string, qs []models.Question, opts Options) (*models.Bundle, error) {
	opts = opts.withDefaults()
	b := &models.Bundle{
		DocID:     docID,
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		CreatedAt: f.now().UTC(),
		Results:   []models.Result{},
	}

	doc, err := f.docs.Get(ctx, docID)
	if err != nil {
		err = fmt.Errorf("filler: read %s: %w", docID, err)
		f.obs.RunCompleted(b, err)
		return b, err
	}
	paras, mode := outline.Structure(doc, opts.Mode)
	opts.Mode = mode
	b.Mode = string(mode)
	b.Validation = Validate(paras, qs)
	f.log.Info("fill started",
		slog.String("doc_id", docID),
		slog.String("run_id", b.RunID),
		slog.String("mode", b.Mode),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("questions", len(qs)),
	)
	f.obs.RunStarted(b, len(qs))

	s := &session{f: f, docID: docID, opts: opts, paras: paras}
	for i, q := range qs {
		r, err := s.process(ctx, q)
		if err != nil {
			err = fmt.Errorf("filler: question %s: %w", q.OutlineID, err)
			f.log.Error("fill aborted", slog.String("run_id", b.RunID), slog.String("error", err.Error()))
			f.obs.RunCompleted(b, err)
			return b, err
		}
		f.log.Debug("question processed",
			slog.String("outline_id", r.OutlineID),
			slog.String("status", string(r.Status)),
		)
		b.Results = append(b.Results, r)
		f.obs.QuestionProcessed(b, i, len(qs), r)
	}

	tail, err := s.notInInput(ctx, qs)
	if err != nil {
		err = fmt.Errorf("filler: %w", err)
		f.obs.RunCompleted(b, err)
		return b, err
	}
	b.Results = append(b.Results, tail...)

	f.log.Info("fill finished", slog.String("run_id", b.RunID), slog.Int("results", len(b.Results)))
	f.obs.RunCompleted(b, nil)
	return b, nil
}

func (o Options) withDefaults() Options {
	if o.AnswerIndent == nil {
		o.AnswerIndent = Indent(DefaultAnswerIndent)
	}
	if o.Mode == "" {
		o.Mode = outline.ModeAuto
	}
	return o
}

// aborts reports errors that end the whole run rather than one question.
func aborts(ctx context.Context, err error) bool {
	return errors.Is(err, apperr.ErrRateLimited) || ctx.Err() != nil
}

type nopObserver struct{}

func (nopObserver) RunStarted(*models.Bundle, int)                              {}
func (nopObserver) QuestionProcessed(*models.Bundle, int, int, models.Result) {}
func (nopObserver) RunCompleted(*models.Bundle, error)                          {}
