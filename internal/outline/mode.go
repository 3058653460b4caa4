package outline

import (
	"fmt"

	"github.com/starford/formfill/internal/apperr"
)

// Mode selects how the outline is derived.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeNative Mode = "native_bullets"
	ModeText   Mode = "text_based"
	ModeNone   Mode = "none"
)

// ParseMode converts a configuration or flag value into a Mode. The empty
// string means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeNative, ModeText, ModeNone:
		return Mode(s), nil
	}
	return "", fmt.Errorf("outline: mode %q: %w", s, apperr.ErrUnsupportedFormat)
}

// ParseOverride is ParseMode for a per-call override: the empty string
// stays empty, meaning "use the configured mode", while an explicit
// "auto" forces detection.
func ParseOverride(s string) (Mode, error) {
	if s == "" {
		return "", nil
	}
	return ParseMode(s)
}

// Detect picks the outline mode for paras. A single native bullet anywhere
// selects native mode; otherwise any text marker selects text mode.
func Detect(paras []Paragraph) Mode {
	for _, p := range paras {
		if p.Bullet != nil {
			return ModeNative
		}
	}
	for _, p := range paras {
		if _, ok := Match(p.Text); ok {
			return ModeText
		}
	}
	return ModeNone
}
