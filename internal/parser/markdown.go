package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/formfill/internal/models"
)

// MarkdownParser handles Markdown files using goldmark. Ordered and
// unordered lists become native bullets, each top-level list its own
// list ID; further blocks inside an item become indented paragraphs.
// An ordered list starting above 1 continues the previous ordered list,
// since an unindented answer line between items ends the Markdown list.
type MarkdownParser struct{}

var _ Parser = (*MarkdownParser)(nil)

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fm, body := splitFrontmatter(data)
	src := []byte(body)

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	w := &mdWalker{src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, "", -1)
	}

	title := deriveTitle(fm, w.firstH1)
	if title == "" {
		title = titleFrom(filename)
	}
	return w.b.document(title), nil
}

type mdWalker struct {
	src     []byte
	b       builder
	lists   int
	firstH1 string

	// lastOrdered is the ID of the latest top-level ordered list.
	lastOrdered string
}

// block emits paragraphs for n. level is the nesting level of the
// enclosing list item, -1 outside lists.
func (w *mdWalker) block(n ast.Node, listID string, level int) {
	indent := float64((level + 1) * IndentStep)
	switch node := n.(type) {
	case *ast.Heading:
		t := strings.Join(w.lines(node), " ")
		if node.Level == 1 && w.firstH1 == "" {
			w.firstH1 = t
		}
		w.b.heading(t, node.Level)
	case *ast.Paragraph, *ast.TextBlock:
		for _, line := range w.lines(node) {
			w.b.plain(line, indent)
		}
	case *ast.List:
		if listID == "" {
			listID = w.topLevelList(node.IsOrdered(), node.Start)
		}
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			w.item(item, listID, level+1)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if line := string(seg.Value(w.src)); strings.TrimSpace(line) != "" {
				w.b.plain(line, indent)
			}
		}
	case *ast.ThematicBreak, *ast.HTMLBlock:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, listID, level)
		}
	}
}

func (w *mdWalker) topLevelList(ordered bool, start int) string {
	if ordered && start > 1 && w.lastOrdered != "" {
		return w.lastOrdered
	}
	w.lists++
	id := fmt.Sprintf("md.%d", w.lists)
	if ordered {
		w.lastOrdered = id
	}
	return id
}

func (w *mdWalker) item(item ast.Node, listID string, level int) {
	first := item.FirstChild()
	if first == nil {
		w.b.item("", listID, level)
		return
	}
	rest := first
	switch first.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		lines := w.lines(first)
		if len(lines) == 0 {
			lines = []string{""}
		}
		w.b.item(lines[0], listID, level)
		for _, line := range lines[1:] {
			w.b.plain(line, float64((level+1)*IndentStep))
		}
		rest = first.NextSibling()
	default:
		w.b.item("", listID, level)
	}
	for c := rest; c != nil; c = c.NextSibling() {
		w.block(c, listID, level)
	}
}

// lines returns the inline text of a block split at line breaks.
func (w *mdWalker) lines(n ast.Node) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if s := clean(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				cur.Write(t.Segment.Value(w.src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					flush()
				}
			case *ast.String:
				cur.Write(t.Value)
			case *ast.AutoLink:
				cur.Write(t.URL(w.src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	flush()
	return out
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: the block is ordinary content.
		return nil, string(data)
	}
	return fm, body
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading.
func deriveTitle(fm map[string]any, firstH1 string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	return firstH1
}
