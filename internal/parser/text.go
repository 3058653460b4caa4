package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/starford/formfill/internal/models"
)

// TextParser handles plain text files. Every non-blank line is a
// paragraph; leading whitespace becomes indent (four columns per level).
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*models.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		b.plain(line, float64(leadingColumns(line))*IndentStep/4)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.document(titleFrom(filename)), nil
}

func leadingColumns(line string) int {
	n := 0
	for _, c := range line {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 4 - n%4
		default:
			return n
		}
	}
	return n
}

var _ Parser = (*TextParser)(nil)

// paragraphsOf is used by the PDF parser, which yields plain text.
func paragraphsOf(text string) []models.Paragraph {
	var b builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.plain(line, 0)
	}
	return b.paras
}
