package models

// Request is one write operation in a batchUpdate. Exactly one field is set.
type Request struct {
	InsertText             *InsertTextRequest             `json:"insertText,omitempty"`
	DeleteContentRange     *DeleteContentRangeRequest     `json:"deleteContentRange,omitempty"`
	UpdateParagraphStyle   *UpdateParagraphStyleRequest   `json:"updateParagraphStyle,omitempty"`
	DeleteParagraphBullets *DeleteParagraphBulletsRequest `json:"deleteParagraphBullets,omitempty"`
	UpdateTextStyle        *UpdateTextStyleRequest        `json:"updateTextStyle,omitempty"`
}

// Location addresses a single offset.
type Location struct {
	Index int `json:"index"`
}

// Range is a half-open offset range.
type Range struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// InsertTextRequest inserts Text before Location.Index.
type InsertTextRequest struct {
	Location Location `json:"location"`
	Text     string   `json:"text"`
}

// DeleteContentRangeRequest removes Range.
type DeleteContentRangeRequest struct {
	Range Range `json:"range"`
}

// UpdateParagraphStyleRequest sets the Fields of ParagraphStyle on every
// paragraph overlapping Range.
type UpdateParagraphStyleRequest struct {
	Range          Range          `json:"range"`
	ParagraphStyle ParagraphStyle `json:"paragraphStyle"`
	Fields         string         `json:"fields"`
}

// DeleteParagraphBulletsRequest strips bullets from every paragraph
// overlapping Range.
type DeleteParagraphBulletsRequest struct {
	Range Range `json:"range"`
}

// UpdateTextStyleRequest sets the Fields of TextStyle over Range.
type UpdateTextStyleRequest struct {
	Range     Range     `json:"range"`
	TextStyle TextStyle `json:"textStyle"`
	Fields    string    `json:"fields"`
}

// WriteControl guards a batch against concurrent edits.
type WriteControl struct {
	RequiredRevisionID string `json:"requiredRevisionId,omitempty"`
	TargetRevisionID   string `json:"targetRevisionId,omitempty"`
}

// BatchUpdateRequest is the body of documents.batchUpdate.
type BatchUpdateRequest struct {
	Requests     []Request     `json:"requests"`
	WriteControl *WriteControl `json:"writeControl,omitempty"`
}

// BatchUpdateResponse is the reply of documents.batchUpdate.
type BatchUpdateResponse struct {
	DocumentID   string           `json:"documentId"`
	Replies      []map[string]any `json:"replies,omitempty"`
	WriteControl *WriteControl    `json:"writeControl,omitempty"`
}

// Kind names the operation carried by r.
func (r Request) Kind() string {
	switch {
	case r.InsertText != nil:
		return "insertText"
	case r.DeleteContentRange != nil:
		return "deleteContentRange"
	case r.UpdateParagraphStyle != nil:
		return "updateParagraphStyle"
	case r.DeleteParagraphBullets != nil:
		return "deleteParagraphBullets"
	case r.UpdateTextStyle != nil:
		return "updateTextStyle"
	}
	return ""
}

// InsertText builds an insertText request.
func InsertText(index int, text string) Request {
	return Request{InsertText: &InsertTextRequest{Location: Location{Index: index}, Text: text}}
}

// DeleteContent builds a deleteContentRange request.
func DeleteContent(start, end int) Request {
	return Request{DeleteContentRange: &DeleteContentRangeRequest{Range: Range{StartIndex: start, EndIndex: end}}}
}

// SetIndent builds an updateParagraphStyle request setting both the start
// and first-line indent to indent points.
func SetIndent(start, end int, indent float64) Request {
	return Request{UpdateParagraphStyle: &UpdateParagraphStyleRequest{
		Range: Range{StartIndex: start, EndIndex: end},
		ParagraphStyle: ParagraphStyle{
			IndentStart:     PT(indent),
			IndentFirstLine: PT(indent),
		},
		Fields: "indentStart,indentFirstLine",
	}}
}

// DeleteBullets builds a deleteParagraphBullets request.
func DeleteBullets(start, end int) Request {
	return Request{DeleteParagraphBullets: &DeleteParagraphBulletsRequest{Range: Range{StartIndex: start, EndIndex: end}}}
}

// SetForeground builds an updateTextStyle request colouring the range.
func SetForeground(start, end int, rgb RGBColor) Request {
	return Request{UpdateTextStyle: &UpdateTextStyleRequest{
		Range: Range{StartIndex: start, EndIndex: end},
		TextStyle: TextStyle{
			ForegroundColor: &OptionalColor{Color: &Color{RGBColor: &rgb}},
		},
		Fields: "foregroundColor",
	}}
}
