// Package questions loads the input specification: the questions a form
// should contain and the answers to write. Three shapes are accepted and
// normalised to a flat list of models.Question:
//
//	{"questions": [{"id": "3", "question": "...", "questions": [{"id": "a", ...}]}]}
//	{"answers": [{"outline_id": "3a", "validation_text": "...", "answer": "..."}]}
//	[{"outline_id": "3a", ...}]
//
// Nested entries get the concatenation of parent and child IDs. Files may be
// JSON or YAML.
package questions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

// Scalar holds a JSON string, number or boolean as text, so IDs written
// as 3 and "3" mean the same thing.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = Scalar(t)
	case float64:
		*s = Scalar(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*s = Scalar(strconv.FormatBool(t))
	default:
		return fmt.Errorf("expected a scalar, got %T", v)
	}
	return nil
}

// Entry is one question of the nested shape.
type Entry struct {
	ID        Scalar  `json:"id"`
	Question  *string `json:"question,omitempty"`
	Answer    *Scalar `json:"answer,omitempty"`
	Questions []Entry `json:"questions,omitempty"`
}

// Spec is the nested document shape written by Convert.
type Spec struct {
	Questions []Entry `json:"questions"`
}

type flatEntry struct {
	OutlineID      Scalar  `json:"outline_id"`
	ValidationText *string `json:"validation_text"`
	Answer         *Scalar `json:"answer"`
}

// Load reads and parses a question file.
func Load(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("questions: read %s: %w", path, err)
	}
	qs, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("questions: %s: %w", path, err)
	}
	return qs, nil
}

// Parse decodes data, as YAML when filename ends in .yaml or .yml and as
// JSON otherwise. Unrecognised shapes return apperr.ErrUnsupportedFormat.
func Parse(data []byte, filename string) ([]models.Question, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode yaml: %v: %w", err, apperr.ErrUnsupportedFormat)
		}
		js, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("decode yaml: %v: %w", err, apperr.ErrUnsupportedFormat)
		}
		data = js
	}
	return parseJSON(data)
}

func parseJSON(data []byte) ([]models.Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var flat []flatEntry
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("decode question array: %v: %w", err, apperr.ErrUnsupportedFormat)
		}
		return fromFlat(flat), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode questions: %v: %w", err, apperr.ErrUnsupportedFormat)
	}
	if raw, ok := obj["questions"]; ok && isArray(raw) {
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode questions: %v: %w", err, apperr.ErrUnsupportedFormat)
		}
		return Flatten(entries), nil
	}
	if raw, ok := obj["answers"]; ok {
		var flat []flatEntry
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, fmt.Errorf("decode answers: %v: %w", err, apperr.ErrUnsupportedFormat)
		}
		return fromFlat(flat), nil
	}
	return nil, fmt.Errorf("expected a 'questions' array or an 'answers' key: %w", apperr.ErrUnsupportedFormat)
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func fromFlat(flat []flatEntry) []models.Question {
	out := make([]models.Question, 0, len(flat))
	for _, f := range flat {
		out = append(out, models.Question{
			OutlineID:      string(f.OutlineID),
			ValidationText: f.ValidationText,
			Answer:         scalarPtr(f.Answer),
		})
	}
	return out
}

// Flatten converts nested entries to the flat list, parents before their
// children. Only one level of nesting is read.
func Flatten(entries []Entry) []models.Question {
	var out []models.Question
	for _, e := range entries {
		id := string(e.ID)
		out = append(out, models.Question{OutlineID: id, ValidationText: e.Question, Answer: scalarPtr(e.Answer)})
		for _, sub := range e.Questions {
			out = append(out, models.Question{
				OutlineID:      id + string(sub.ID),
				ValidationText: sub.Question,
				Answer:         scalarPtr(sub.Answer),
			})
		}
	}
	return out
}

// Nest regroups a flat list by outline ID prefix: an entry whose ID
// extends the preceding top-level ID becomes its child. A digit never
// continues a parent ending in a digit, so "10" is not a child of "1".
func Nest(qs []models.Question) []Entry {
	var out []Entry
	for _, q := range qs {
		if n := len(out); n > 0 {
			parent := &out[n-1]
			if suffix, ok := childSuffix(string(parent.ID), q.OutlineID); ok {
				parent.Questions = append(parent.Questions, Entry{
					ID:       Scalar(suffix),
					Question: q.ValidationText,
					Answer:   toScalar(q.Answer),
				})
				continue
			}
		}
		out = append(out, Entry{ID: Scalar(q.OutlineID), Question: q.ValidationText, Answer: toScalar(q.Answer)})
	}
	return out
}

func childSuffix(parent, id string) (string, bool) {
	if parent == "" || len(id) <= len(parent) || !strings.HasPrefix(id, parent) {
		return "", false
	}
	suffix := id[len(parent):]
	if isDigit(parent[len(parent)-1]) && isDigit(suffix[0]) {
		return "", false
	}
	return suffix, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func scalarPtr(s *Scalar) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func toScalar(s *string) *Scalar {
	if s == nil {
		return nil
	}
	v := Scalar(*s)
	return &v
}
