package sse

import "github.com/starford/formfill/internal/models"

// Event types published during a fill.
const (
	EventRunStarted        = "run.started"
	EventQuestionProcessed = "question.processed"
	EventRunProgress       = "run.progress"
	EventRunCompleted      = "run.completed"
)

// Observer forwards fill progress to a Broker.
type Observer struct {
	b *Broker
}

// NewObserver returns an Observer publishing to b.
func NewObserver(b *Broker) *Observer { return &Observer{b: b} }

func (o *Observer) RunStarted(b *models.Bundle, total int) {
	o.b.Publish(Event{Type: EventRunStarted, Data: map[string]any{
		"run_id":  b.RunID,
		"doc_id":  b.DocID,
		"mode":    b.Mode,
		"dry_run": b.DryRun,
		"total":   total,
	}})
}

func (o *Observer) QuestionProcessed(b *models.Bundle, index, total int, r models.Result) {
	o.b.PublishProgress(Progress{
		RunID:     b.RunID,
		DocID:     b.DocID,
		Index:     index,
		Total:     total,
		OutlineID: r.OutlineID,
		Status:    string(r.Status),
	})
}

func (o *Observer) RunCompleted(b *models.Bundle, err error) {
	data := map[string]any{
		"run_id":     b.RunID,
		"doc_id":     b.DocID,
		"results":    len(b.Results),
		"has_errors": b.HasErrors(),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	o.b.Publish(Event{Type: EventRunCompleted, Data: data})
}
