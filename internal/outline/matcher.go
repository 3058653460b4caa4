// Package outline infers the hierarchical outline of a form document and
// locates answer slots under its questions.
package outline

import (
	"regexp"
	"strings"
)

// PatternType names the textual marker style that matched.
type PatternType string

const (
	PatternCombined    PatternType = "combined"     // "1. a)"
	PatternCombinedDot PatternType = "combined_dot" // "1a."
	PatternNumber      PatternType = "number"       // "1. "
	PatternNumberParen PatternType = "number_paren" // "1)"
	PatternLetterParen PatternType = "letter_paren" // "a) "
	PatternLetterDot   PatternType = "letter_dot"   // "a. "
	PatternRoman       PatternType = "roman"        // "iii. "
)

// Marker is a recognised leading outline marker.
type Marker struct {
	Pattern      PatternType `json:"pattern_type"`
	Identifier   string      `json:"identifier"`
	NestingLevel int         `json:"nesting_level"`
	TextAfter    string      `json:"text_after"`
	// ParentID and SubID are set for combined markers only.
	ParentID string `json:"parent_id,omitempty"`
	SubID    string `json:"sub_id,omitempty"`
}

// Order matters: combined forms must be tried before single-level ones.
var textPatterns = []struct {
	re   *regexp.Regexp
	kind PatternType
}{
	{regexp.MustCompile(`^(\d+)\.\s*([a-z])\)\s*`), PatternCombined},
	{regexp.MustCompile(`^(\d+)([a-z])\.\s*`), PatternCombinedDot},
	{regexp.MustCompile(`^(\d+)\.\s+`), PatternNumber},
	{regexp.MustCompile(`^(\d+)\)\s*`), PatternNumberParen},
	{regexp.MustCompile(`^([a-z])\)\s*`), PatternLetterParen},
	{regexp.MustCompile(`^([a-z])\.\s+`), PatternLetterDot},
	{regexp.MustCompile(`^(i{1,3}|iv|v|vi{0,3}|ix|x)\.\s+`), PatternRoman},
}

// Match recognises an outline marker at the start of text. The text is
// trimmed first; the first pattern that matches wins.
func Match(text string) (Marker, bool) {
	text = strings.TrimSpace(text)
	for _, p := range textPatterns {
		loc := p.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		g1 := text[loc[2]:loc[3]]
		m := Marker{Pattern: p.kind, TextAfter: text[loc[1]:]}
		switch p.kind {
		case PatternCombined, PatternCombinedDot:
			sub := strings.ToLower(text[loc[4]:loc[5]])
			m.ParentID = g1
			m.SubID = sub
			m.Identifier = g1 + sub
			m.NestingLevel = 1
		case PatternNumber, PatternNumberParen:
			m.Identifier = g1
			m.NestingLevel = 0
		case PatternLetterParen, PatternLetterDot:
			m.Identifier = strings.ToLower(g1)
			m.NestingLevel = 1
		case PatternRoman:
			m.Identifier = strings.ToLower(g1)
			m.NestingLevel = 2
		}
		return m, true
	}
	return Marker{}, false
}

// Combined reports whether the marker names its parent explicitly.
func (m Marker) Combined() bool {
	return m.ParentID != ""
}
