package questions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column aliases, matched against headers case-insensitively.
var (
	numberColumns   = []string{"#", "Number", "Num"}
	subColumns      = []string{"##", "Sub", "SubNumber"}
	questionColumns = []string{"Question", "Q"}
	answerColumns   = []string{"Answer", "A", "Response"}
)

// ConvertCSV reads a spreadsheet export with one row per question and
// builds the nested shape. Rows without a main number are skipped; rows
// with a sub number become children of their main number. Other columns
// are ignored.
func ConvertCSV(r io.Reader) (*Spec, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("questions: csv has no headers")
	}
	if err != nil {
		return nil, fmt.Errorf("questions: read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	numCol := findColumn(header, numberColumns)
	subCol := findColumn(header, subColumns)
	questionCol := findColumn(header, questionColumns)
	answerCol := findColumn(header, answerColumns)
	if numCol < 0 {
		return nil, fmt.Errorf("questions: CSV must have a '#' column for main bullet number")
	}
	if answerCol < 0 {
		return nil, fmt.Errorf("questions: CSV must have an 'Answer' column")
	}

	var order []string
	byID := make(map[string]*Entry)
	subIndex := make(map[string]map[string]int)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("questions: read csv: %w", err)
		}
		mainID := cell(row, numCol)
		if mainID == "" {
			continue
		}
		subID := cell(row, subCol)
		question := cell(row, questionCol)
		answer := cell(row, answerCol)

		e, ok := byID[mainID]
		if !ok {
			e = &Entry{ID: Scalar(mainID)}
			byID[mainID] = e
			order = append(order, mainID)
		}

		if subID == "" {
			if question != "" {
				e.Question = &question
			}
			if answer != "" {
				e.Answer = toScalar(&answer)
			}
			continue
		}

		sub := Entry{ID: Scalar(subID)}
		if question != "" {
			sub.Question = &question
		}
		if answer != "" {
			sub.Answer = toScalar(&answer)
		}
		// A repeated sub number replaces the earlier row in place.
		if subIndex[mainID] == nil {
			subIndex[mainID] = make(map[string]int)
		}
		if i, dup := subIndex[mainID][subID]; dup {
			e.Questions[i] = sub
		} else {
			subIndex[mainID][subID] = len(e.Questions)
			e.Questions = append(e.Questions, sub)
		}
	}

	spec := &Spec{Questions: make([]Entry, 0, len(order))}
	for _, id := range order {
		spec.Questions = append(spec.Questions, *byID[id])
	}
	return spec, nil
}

// findColumn returns the index of the first header naming any candidate.
func findColumn(header, candidates []string) int {
	for i, name := range header {
		for _, c := range candidates {
			if strings.EqualFold(strings.TrimSpace(name), c) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
