package models

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var outlineIDRe = regexp.MustCompile(`^\S+$`)

// Question is one flattened entry of the input specification.
type Question struct {
	OutlineID      string  `json:"outline_id"`
	ValidationText *string `json:"validation_text,omitempty"`
	Answer         *string `json:"answer,omitempty"`
}

// Validate reports malformed entries.
func (q Question) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.OutlineID, validation.Required, validation.Match(outlineIDRe)),
	)
}

// Expected returns the validation text, or "" when none was given.
func (q Question) Expected() string {
	if q.ValidationText == nil {
		return ""
	}
	return *q.ValidationText
}

// AnswerText returns the answer, or "" when none was given.
func (q Question) AnswerText() string {
	if q.Answer == nil {
		return ""
	}
	return *q.Answer
}

// HasAnswer reports whether a non-blank answer was supplied.
func (q Question) HasAnswer() bool {
	return strings.TrimSpace(q.AnswerText()) != ""
}
