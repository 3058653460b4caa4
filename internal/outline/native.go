package outline

import (
	"fmt"
	"strconv"
)

// DefaultListID stands in for bullets that carry no list identifier.
const DefaultListID = "default"

var romans = [...]string{"i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x"}

// NativeBuilder derives outline IDs from native bullet metadata.
type NativeBuilder struct{}

type stackEntry struct {
	level int
	id    string
}

// Build numbers bulleted paragraphs per list and nesting level. Returning to
// a shallower level discards the counts of every deeper level, so a new
// branch restarts its children at 1.
func (NativeBuilder) Build(paras []Paragraph) []Paragraph {
	out := reset(paras)
	counters := make(map[string]map[int]int)
	var stack []stackEntry

	for i := range out {
		p := &out[i]
		if p.Bullet == nil {
			continue
		}
		listID := p.Bullet.ListID
		if listID == "" {
			listID = DefaultListID
		}
		level := p.Bullet.NestingLevel

		levels, ok := counters[listID]
		if !ok {
			levels = make(map[int]int)
			counters[listID] = levels
		}
		for l := range levels {
			if l > level {
				delete(levels, l)
			}
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		levels[level]++
		id := localID(level, levels[level])
		if level > 0 {
			id = parentID(stack, level-1) + id
		}

		p.IsBullet = true
		p.NestingLevel = level
		p.OutlineID = id
		stack = append(stack, stackEntry{level: level, id: id})
	}
	return out
}

// localID renders the sibling ordinal count for a level.
func localID(level, count int) string {
	switch level {
	case 0:
		return strconv.Itoa(count)
	case 1:
		if count <= 26 {
			return string(rune('a' + count - 1))
		}
		return fmt.Sprintf("a%d", count-26)
	case 2:
		if count <= len(romans) {
			return romans[count-1]
		}
		return fmt.Sprintf("r%d", count)
	}
	return fmt.Sprintf("L%d_%d", level, count)
}

// parentID returns the ID of the live stack entry at level, or "" for an
// orphan with no such ancestor.
func parentID(stack []stackEntry, level int) string {
	for _, e := range stack {
		if e.level == level {
			return e.id
		}
	}
	return ""
}
