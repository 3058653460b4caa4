package models

import "time"

// Status is the outcome of processing one entry.
type Status string

const (
	StatusInserted     Status = "inserted"
	StatusReplaced     Status = "replaced"
	StatusNoChange     Status = "no_change"
	StatusWouldInsert  Status = "would_insert"
	StatusWouldReplace Status = "would_replace"
	StatusSkipped      Status = "skipped"
	StatusNotFound     Status = "not_found"
	StatusError        Status = "error"
	StatusNotInInput   Status = "not_in_input"
)

// MatchAnswer is the match_type of a no_change result.
const MatchAnswer = "answer_matches"

// Writes reports whether s stands for an insert or replace, performed or planned.
func (s Status) Writes() bool {
	switch s {
	case StatusInserted, StatusReplaced, StatusWouldInsert, StatusWouldReplace:
		return true
	}
	return false
}

// Result is the record of one processed entry.
type Result struct {
	OutlineID          string   `json:"outline_id"`
	Status             Status   `json:"status"`
	Actions            []string `json:"actions"`
	Reason             string   `json:"reason,omitempty"`
	Error              string   `json:"error,omitempty"`
	Warning            string   `json:"warning,omitempty"`
	DetectionUncertain bool     `json:"detection_uncertain,omitempty"`
	Question           string   `json:"question,omitempty"`
	NewAnswer          string   `json:"new_answer,omitempty"`
	PreviousAnswer     string   `json:"previous_answer,omitempty"`
	MatchedText        string   `json:"matched_text,omitempty"`
	MatchType          string   `json:"match_type,omitempty"`
	HasAnswer          *bool    `json:"has_answer,omitempty"`
	ExistingAnswer     string   `json:"existing_answer,omitempty"`
}

// MissingInDoc is an input entry whose outline ID the document lacks.
type MissingInDoc struct {
	OutlineID      string  `json:"outline_id"`
	ValidationText *string `json:"validation_text"`
}

// MissingInInput is a document question the input never references.
type MissingInInput struct {
	OutlineID string `json:"outline_id"`
	DocText   string `json:"doc_text"`
	HasAnswer bool   `json:"has_answer"`
}

// TextMismatch is an ID present on both sides whose text disagrees.
type TextMismatch struct {
	OutlineID string `json:"outline_id"`
	Expected  string `json:"expected"`
	Found     string `json:"found"`
}

// Validation is the whole-document diff between input and document.
type Validation struct {
	DocQuestionCount   int              `json:"doc_question_count"`
	InputQuestionCount int              `json:"input_question_count"`
	DocIDs             []string         `json:"doc_ids"`
	InputIDs           []string         `json:"input_ids"`
	MissingInDoc       []MissingInDoc   `json:"missing_in_doc"`
	MissingInInput     []MissingInInput `json:"missing_in_input"`
	TextMismatches     []TextMismatch   `json:"text_mismatches"`
}

// Bundle is the persisted output of one run.
type Bundle struct {
	DocID      string     `json:"doc_id"`
	RunID      string     `json:"run_id,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	DryRun     bool       `json:"dry_run"`
	CreatedAt  time.Time  `json:"created_at"`
	Validation Validation `json:"validation"`
	Results    []Result   `json:"results"`
}

// HasErrors reports whether any result carries the error status.
func (b *Bundle) HasErrors() bool {
	for _, r := range b.Results {
		if r.Status == StatusError {
			return true
		}
	}
	return false
}

// StatusCounts tallies results by status.
func (b *Bundle) StatusCounts() map[Status]int {
	out := make(map[Status]int)
	for _, r := range b.Results {
		out[r.Status]++
	}
	return out
}
