package outline

import "github.com/starford/formfill/internal/models"

// Builder assigns outline IDs to a paragraph sequence. Implementations
// never modify their input and return one annotated paragraph per input
// paragraph, in the same order.
type Builder interface {
	Build(paras []Paragraph) []Paragraph
}

// BuilderFor returns the strategy for mode. Auto is not a strategy; callers
// resolve it with Detect first.
func BuilderFor(mode Mode) Builder {
	switch mode {
	case ModeNative:
		return NativeBuilder{}
	case ModeText:
		return TextBuilder{}
	}
	return plainBuilder{}
}

// Build resolves auto mode and runs the matching strategy. It returns the
// mode actually used.
func Build(paras []Paragraph, mode Mode) ([]Paragraph, Mode) {
	if mode == ModeAuto || mode == "" {
		mode = Detect(paras)
	}
	return BuilderFor(mode).Build(paras), mode
}

// Structure extracts and builds the outline of doc.
func Structure(doc *models.Document, mode Mode) ([]Paragraph, Mode) {
	return Build(Extract(doc.Body.Content), mode)
}

// plainBuilder leaves every paragraph without outline semantics.
type plainBuilder struct{}

func (plainBuilder) Build(paras []Paragraph) []Paragraph {
	return reset(paras)
}
