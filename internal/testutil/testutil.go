// Package testutil provides shared test helpers for vaults, documents and
// history databases.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/starford/formfill/internal/history"
	"github.com/starford/formfill/internal/models"
	"github.com/starford/formfill/internal/storage"
)

// TestDB creates a temporary SQLite history database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "formfill-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a document store.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Line describes one paragraph of a test document.
type Line struct {
	Text   string
	Level  int // bullet nesting level, -1 for a plain paragraph
	Indent float64
}

// Item is a native bullet at level.
func Item(level int, text string) Line { return Line{Text: text, Level: level} }

// Plain is an unindented plain paragraph.
func Plain(text string) Line { return Line{Text: text, Level: -1} }

// Answer is a plain paragraph indented one step, the shape of a written answer.
func Answer(text string) Line { return Line{Text: text, Level: -1, Indent: 36} }

// Doc builds a document whose bullets all belong to one list.
func Doc(id string, lines ...Line) *models.Document {
	paras := make([]models.Paragraph, 0, len(lines))
	for _, l := range lines {
		var style *models.ParagraphStyle
		if l.Indent > 0 {
			style = &models.ParagraphStyle{IndentStart: models.PT(l.Indent)}
		}
		var bullet *models.Bullet
		if l.Level >= 0 {
			bullet = &models.Bullet{ListID: "list.1", NestingLevel: l.Level}
		}
		paras = append(paras, models.NewParagraph(l.Text, style, bullet))
	}
	return models.NewDocument(id, "Test form", paras)
}

// TextDoc builds a document with one plain paragraph per line of body.
func TextDoc(id, body string) *models.Document {
	var paras []models.Paragraph
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
		paras = append(paras, models.NewParagraph(line, nil, nil))
	}
	return models.NewDocument(id, "Test form", paras)
}

// PutDoc stores doc in the vault, failing the test on error.
func PutDoc(t *testing.T, store *storage.FS, doc *models.Document) {
	t.Helper()
	if err := store.Put(doc); err != nil {
		t.Fatalf("put %s: %v", doc.DocumentID, err)
	}
}

// Texts returns the text of every body paragraph in order.
func Texts(doc *models.Document) []string {
	var out []string
	for _, el := range doc.Body.Content {
		if el.Paragraph != nil {
			out = append(out, el.Paragraph.Text())
		}
	}
	return out
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }
