package parser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/outline"
)

// want describes one expected paragraph: level -1 means no bullet.
type want struct {
	text   string
	level  int
	indent float64
}

func paragraphs(doc *models.Document) []*models.Paragraph {
	var out []*models.Paragraph
	for _, el := range doc.Body.Content {
		if el.Paragraph != nil {
			out = append(out, el.Paragraph)
		}
	}
	return out
}

func assertParagraphs(t *testing.T, doc *models.Document, wants []want) {
	t.Helper()
	got := paragraphs(doc)
	if len(got) != len(wants) {
		var texts []string
		for _, p := range got {
			texts = append(texts, p.Text())
		}
		t.Fatalf("got %d paragraphs %q, want %d", len(got), texts, len(wants))
	}
	for i, w := range wants {
		p := got[i]
		if p.Text() != w.text {
			t.Errorf("[%d] text = %q, want %q", i, p.Text(), w.text)
		}
		level := -1
		if p.Bullet != nil {
			level = p.Bullet.NestingLevel
		}
		if level != w.level {
			t.Errorf("[%d] %q level = %d, want %d", i, w.text, level, w.level)
		}
		if p.IndentStart() != w.indent {
			t.Errorf("[%d] %q indent = %v, want %v", i, w.text, p.IndentStart(), w.indent)
		}
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.docx", "a.MD", "a.markdown", "a.html", "a.htm", "a.pdf", "a.txt"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("ForFile(%q): %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("IsSupportedExtension(%q) = false", name)
		}
	}
	if _, err := ForFile("a.xlsx"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("ForFile(xlsx) err = %v", err)
	}
}

func TestTextParser(t *testing.T) {
	src := "1. What is your name?\n    John Smith\n\n2. Age?\n\ta) years\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(src), "form.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "form" {
		t.Errorf("title = %q", doc.Title)
	}
	assertParagraphs(t, doc, []want{
		{"1. What is your name?", -1, 0},
		{"John Smith", -1, 36},
		{"2. Age?", -1, 0},
		{"a) years", -1, 36},
	})
	if doc.Body.Content[1].StartIndex != 1 {
		t.Errorf("first paragraph starts at %d, want 1", doc.Body.Content[1].StartIndex)
	}
}

func TestTextParser_EmptyFile(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("\n\n"), "empty.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n := len(paragraphs(doc)); n != 1 {
		t.Errorf("paragraphs = %d, want a single empty one", n)
	}
}

func TestMarkdownParser(t *testing.T) {
	src := `---
title: Intake
---
# Application

1. What is your *name*?

   John Smith

2. Employment
   - Employer?
   - Start date?
3. Anything else?

Thank you.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "intake.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Intake" {
		t.Errorf("title = %q, want Intake", doc.Title)
	}
	assertParagraphs(t, doc, []want{
		{"Application", -1, 0},
		{"What is your name?", 0, 0},
		{"John Smith", -1, 36},
		{"Employment", 0, 0},
		{"Employer?", 1, 36},
		{"Start date?", 1, 36},
		{"Anything else?", 0, 0},
		{"Thank you.", -1, 0},
	})
	ps := paragraphs(doc)
	if ps[1].Bullet.ListID != ps[4].Bullet.ListID {
		t.Error("nested items should share the list ID")
	}
	if ps[0].ParagraphStyle == nil || ps[0].ParagraphStyle.NamedStyleType != "HEADING_1" {
		t.Errorf("heading style = %+v", ps[0].ParagraphStyle)
	}
}

func TestMarkdownParser_TitleFallbacks(t *testing.T) {
	doc, _ := (&MarkdownParser{}).Parse(strings.NewReader("# From Heading\n\n- a\n"), "x.md")
	if doc.Title != "From Heading" {
		t.Errorf("title = %q", doc.Title)
	}
	doc, _ = (&MarkdownParser{}).Parse(strings.NewReader("- a\n\n- b\n"), "file-name.md")
	if doc.Title != "file-name" {
		t.Errorf("title = %q", doc.Title)
	}
	// Separate top-level lists get separate IDs.
	doc, _ = (&MarkdownParser{}).Parse(strings.NewReader("1. a\n\ntext\n\n1. b\n"), "x.md")
	ps := paragraphs(doc)
	if ps[0].Bullet.ListID == ps[2].Bullet.ListID {
		t.Error("separate lists share an ID")
	}
}

func TestSplitFrontmatter_InvalidYAML(t *testing.T) {
	fm, body := splitFrontmatter([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if fm != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if !strings.Contains(body, "Body") {
		t.Errorf("body = %q", body)
	}
}

func TestHTMLParser(t *testing.T) {
	src := `<html><head><title>Form</title><style>li{}</style></head><body>
<h1>Application</h1>
<ol>
  <li>What is your <b>name</b>?<p>John Smith</p></li>
  <li>Employment<ul><li>Employer?</li></ul></li>
</ol>
<p>Thank you.</p>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(src), "form.html")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Form" {
		t.Errorf("title = %q", doc.Title)
	}
	assertParagraphs(t, doc, []want{
		{"Application", -1, 0},
		{"What is your name?", 0, 0},
		{"John Smith", -1, 36},
		{"Employment", 0, 0},
		{"Employer?", 1, 36},
		{"Thank you.", -1, 0},
	})
}

func TestSplitOrderedListsContinueNumbering(t *testing.T) {
	tests := []struct {
		name   string
		parser Parser
		file   string
		src    string
	}{
		{"markdown", &MarkdownParser{}, "form.md", "1. Name?\n\nJohn Smith\n\n2. Age?\n\n42\n\n3. City?\n"},
		{"html", &HTMLParser{}, "form.html", `<ol><li>Name?</li></ol><p>John Smith</p><ol start="2"><li>Age?</li></ol><p>42</p><ol start="3"><li>City?</li></ol>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tt.parser.Parse(strings.NewReader(tt.src), tt.file)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			paras, mode := outline.Structure(doc, outline.ModeAuto)
			if mode != outline.ModeNative {
				t.Fatalf("mode = %q", mode)
			}
			var ids []string
			for _, q := range outline.Questions(paras) {
				ids = append(ids, q.OutlineID+"="+q.Text)
			}
			want := "1=Name?,2=Age?,3=City?"
			if got := strings.Join(ids, ","); got != want {
				t.Errorf("ids = %s, want %s", got, want)
			}
			slot, ok := outline.Locate(paras, "2", "Age")
			if !ok || slot.Answer == nil || slot.Answer.Text != "42" {
				t.Errorf("slot for 2 = %+v, %v", slot, ok)
			}
		})
	}
}

func TestSeparateListsKeepOwnNumbering(t *testing.T) {
	src := "1. Name?\n\nSome notes\n\n1. Restarted?\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(src), "form.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	paras, _ := outline.Structure(doc, outline.ModeAuto)
	qs := outline.Questions(paras)
	if len(qs) != 2 || qs[0].OutlineID != "1" || qs[1].OutlineID != "1" {
		t.Errorf("questions = %+v", qs)
	}
}

func TestDOCXParser(t *testing.T) {
	d := docx.New()
	d.AddParagraph().NumPr("3", "0").AddText("What is your name?")
	answer := d.AddParagraph()
	answer.AddText("John Smith")
	answer.Properties = &docx.ParagraphProperties{Ind: &docx.Ind{Left: 720}}
	d.AddParagraph().NumPr("3", "1").AddText("Employer?")
	d.AddParagraph().Style("Heading2").AddText("Notes")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	doc, err := (&DOCXParser{}).Parse(&buf, "form.docx")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	assertParagraphs(t, doc, []want{
		{"What is your name?", 0, 0},
		{"John Smith", -1, 36},
		{"Employer?", 1, 0},
		{"Notes", -1, 0},
	})
	ps := paragraphs(doc)
	if ps[0].Bullet.ListID != "docx.3" {
		t.Errorf("list id = %q", ps[0].Bullet.ListID)
	}
	if ps[3].ParagraphStyle == nil || ps[3].ParagraphStyle.NamedStyleType != "HEADING_2" {
		t.Errorf("heading style = %+v", ps[3].ParagraphStyle)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.txt")
	if err := os.WriteFile(path, []byte("1. Name?\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if doc.DocumentID != path {
		t.Errorf("DocumentID = %q, want %q", doc.DocumentID, path)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
