package outline

// TextBuilder derives outline IDs from leading text markers. It tracks one
// level of parentage only: every sub-item attaches to the last top-level
// number seen.
type TextBuilder struct{}

// Build annotates paragraphs whose text starts with an outline marker.
func (TextBuilder) Build(paras []Paragraph) []Paragraph {
	out := reset(paras)
	parent := ""

	for i := range out {
		p := &out[i]
		m, ok := Match(p.Text)
		if !ok {
			continue
		}

		var id string
		switch {
		case m.NestingLevel == 0:
			id = m.Identifier
			parent = id
		case m.Combined():
			id = m.ParentID + m.SubID
			parent = m.ParentID
		default:
			// An orphan sub-item keeps its bare identifier.
			id = parent + m.Identifier
		}

		p.IsBullet = true
		p.NestingLevel = m.NestingLevel
		p.OutlineID = id
	}
	return out
}
