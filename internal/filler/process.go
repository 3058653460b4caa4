package filler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// UncertainWarning accompanies results whose answer detection was ambiguous.
const UncertainWarning = "Could not reliably detect existing answer. This is the last question."

// session carries the state of one run. paras is the last structure read;
// it is dropped after every write and only used for decisions that do not
// write.
type session struct {
	f     *Filler
	docID string
	opts  Options
	paras []outline.Paragraph
	rev   string
}

func (s *session) refresh(ctx context.Context) ([]outline.Paragraph, int, error) {
	doc, err := s.f.docs.Get(ctx, s.docID)
	if err != nil {
		return nil, 0, err
	}
	s.paras, _ = outline.Structure(doc, s.opts.Mode)
	s.rev = doc.RevisionID
	return s.paras, doc.EndIndex(), nil
}

func (s *session) snapshot(ctx context.Context) ([]outline.Paragraph, error) {
	if s.paras != nil {
		return s.paras, nil
	}
	paras, _, err := s.refresh(ctx)
	return paras, err
}

// process handles one input entry. The returned error is non-nil only when
// the whole run must stop.
func (s *session) process(ctx context.Context, q models.Question) (models.Result, error) {
	r := models.Result{OutlineID: q.OutlineID, Actions: []string{}}

	if err := q.Validate(); err != nil {
		r.Status = models.StatusError
		r.Error = fmt.Sprintf("malformed entry: %v", err)
		return r, nil
	}

	if !q.HasAnswer() {
		r.Status = models.StatusSkipped
		r.Reason = "No answer provided"
		paras, err := s.snapshot(ctx)
		if err != nil {
			if aborts(ctx, err) {
				return r, err
			}
			s.f.log.Debug("existing answer lookup failed", slog.String("outline_id", q.OutlineID), slog.String("error", err.Error()))
			return r, nil
		}
		if slot, ok := outline.Locate(paras, q.OutlineID, q.Expected()); ok && slot.HasAnswer() {
			r.ExistingAnswer = strings.TrimSpace(slot.Answer.Text)
		}
		return r, nil
	}

	r, err := s.write(ctx, q)
	if errors.Is(err, apperr.ErrConflict) {
		s.f.log.Warn("document changed during write, retrying", slog.String("outline_id", q.OutlineID))
		r, err = s.write(ctx, q)
	}
	if err != nil {
		if aborts(ctx, err) {
			return r, err
		}
		r = models.Result{OutlineID: q.OutlineID, Status: models.StatusError, Actions: []string{}, Error: err.Error()}
	}
	return r, nil
}

// write re-reads the document, locates the answer slot and inserts,
// replaces or leaves the answer.
func (s *session) write(ctx context.Context, q models.Question) (models.Result, error) {
	r := models.Result{OutlineID: q.OutlineID, Actions: []string{}}

	paras, end, err := s.refresh(ctx)
	if err != nil {
		return r, err
	}
	slot, ok := outline.Locate(paras, q.OutlineID, q.Expected())
	if !ok {
		r.Status = models.StatusNotFound
		r.Reason = fmt.Sprintf("Question not found for outline %s", q.OutlineID)
		return r, nil
	}
	r.Question = slot.Question.Text
	answer := strings.TrimSpace(q.AnswerText())

	var reqs []models.Request
	if slot.Answer != nil {
		existing := strings.TrimSpace(slot.Answer.Text)
		if existing == answer {
			r.Status = models.StatusNoChange
			r.MatchType = models.MatchAnswer
			r.MatchedText = existing
			return r, nil
		}
		r.PreviousAnswer = existing
		r.NewAnswer = answer
		r.Status = models.StatusWouldReplace
		if !s.opts.DryRun {
			r.Status = models.StatusReplaced
			reqs = ReplaceRequests(*slot.Answer, answer, s.opts)
		}
	} else {
		r.NewAnswer = answer
		if slot.Uncertain {
			r.DetectionUncertain = true
			r.Warning = UncertainWarning
		}
		r.Status = models.StatusWouldInsert
		if !s.opts.DryRun {
			r.Status = models.StatusInserted
			reqs = InsertRequests(slot.Question, answer, end, s.opts)
		}
	}
	r.Actions = []string{string(r.Status)}

	if len(reqs) > 0 {
		batch := models.BatchUpdateRequest{Requests: reqs}
		if s.rev != "" {
			batch.WriteControl = &models.WriteControl{RequiredRevisionID: s.rev}
		}
		// Offsets from this read are stale after the write, whatever its outcome.
		s.paras = nil
		if _, err := s.f.docs.BatchUpdate(ctx, s.docID, batch); err != nil {
			return r, err
		}
	}
	return r, nil
}

// notInInput lists the document questions the input never references, in
// document order, with whether each currently holds an answer.
func (s *session) notInInput(ctx context.Context, qs []models.Question) ([]models.Result, error) {
	paras, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	// seen starts with the input IDs; repeated document IDs keep their
	// first occurrence, matching Validate.
	seen := make(map[string]bool, len(qs))
	for _, q := range qs {
		seen[q.OutlineID] = true
	}
	var out []models.Result
	for _, p := range outline.Questions(paras) {
		if seen[p.OutlineID] {
			continue
		}
		seen[p.OutlineID] = true
		slot := outline.LocateAnswer(paras, p)
		has := slot.HasAnswer()
		r := models.Result{
			OutlineID: p.OutlineID,
			Status:    models.StatusNotInInput,
			Actions:   []string{},
			Question:  p.Text,
			HasAnswer: &has,
		}
		if has {
			r.ExistingAnswer = strings.TrimSpace(slot.Answer.Text)
		}
		out = append(out, r)
	}
	return out, nil
}
