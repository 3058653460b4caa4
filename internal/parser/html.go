package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/formfill/internal/models"
)

// HTMLParser handles HTML files. <ol>/<ul> items become native bullets;
// blocks nested in an item after its own text become indented paragraphs.
type HTMLParser struct{}

var _ Parser = (*HTMLParser)(nil)

func (p *HTMLParser) Parse(r io.Reader, filename string) (*models.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFrom(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	w := &htmlWalker{}
	if body := findBody(doc); body != nil {
		w.children(body, "", -1)
	} else {
		w.children(doc, "", -1)
	}
	w.flush(-1)
	return w.b.document(title), nil
}

type htmlWalker struct {
	b     builder
	lists int

	// lastOrdered is the ID of the latest top-level <ol>; an <ol start>
	// above 1 continues it.
	lastOrdered string

	// inline text gathered from loose text nodes and inline elements
	pending strings.Builder
}

func (w *htmlWalker) flush(level int) {
	if t := clean(w.pending.String()); t != "" {
		w.b.plain(t, float64((level+1)*IndentStep))
	}
	w.pending.Reset()
}

func (w *htmlWalker) children(n *html.Node, listID string, level int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, listID, level)
	}
}

func (w *htmlWalker) node(n *html.Node, listID string, level int) {
	switch n.Type {
	case html.TextNode:
		w.pending.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		w.children(n, listID, level)
		return
	}

	switch n.Data {
	case "script", "style", "head", "template", "noscript":
		return
	case "br":
		w.flush(level)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.flush(level)
		w.b.heading(textContent(n), headingLevel(n.Data))
	case "ol", "ul":
		w.flush(level)
		if listID == "" {
			listID = w.topLevelList(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "li" {
				w.item(c, listID, level+1)
			}
		}
	case "p", "div", "blockquote", "pre", "td", "th", "dt", "dd", "tr", "table", "section", "article", "form", "label":
		w.flush(level)
		w.children(n, listID, level)
		w.flush(level)
	default:
		w.children(n, listID, level)
	}
}

func (w *htmlWalker) topLevelList(n *html.Node) string {
	ordered := n.Data == "ol"
	if ordered && listStart(n) > 1 && w.lastOrdered != "" {
		return w.lastOrdered
	}
	w.lists++
	id := fmt.Sprintf("html.%d", w.lists)
	if ordered {
		w.lastOrdered = id
	}
	return id
}

func listStart(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "start" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil {
				return v
			}
		}
	}
	return 1
}

// item emits the list item's own text as a bullet and everything after
// its first block boundary as content nested one level deeper.
func (w *htmlWalker) item(li *html.Node, listID string, level int) {
	var own strings.Builder
	c := li.FirstChild
	for ; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isBlock(c.Data) {
			if own.Len() == 0 && (c.Data == "p" || c.Data == "div") {
				own.WriteString(textContent(c))
				c = c.NextSibling
			}
			break
		}
		own.WriteString(nodeText(c))
	}
	w.b.item(clean(own.String()), listID, level)
	for ; c != nil; c = c.NextSibling {
		w.node(c, listID, level)
	}
	w.flush(level)
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "ol", "ul", "blockquote", "pre", "table", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	return textContent(n)
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return clean(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
