package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/formfill/internal/models"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 72rem; margin: 2rem auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML writes the Markdown report of b as a standalone HTML page.
func HTML(w io.Writer, b *models.Bundle, opts Options) error {
	var md bytes.Buffer
	if err := Markdown(&md, b, opts); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := markdownRenderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString("Form Filler Results: "+b.DocID), body.String())
	return err
}
