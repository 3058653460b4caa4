package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/checksum"
	"github.com/starford/formfill/internal/docedit"
	"github.com/starford/formfill/internal/models"
)

const docExt = ".json"

var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FS is the vault: documents stored as <id>.json under a root directory.
// Writes are applied in memory by docedit and saved atomically.
type FS struct {
	root string // absolute path to vault directory
	mu   sync.Mutex
}

var (
	_ Provider = (*FS)(nil)
	_ Lister   = (*FS)(nil)
)

// NewFS creates a vault rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string { return f.root }

// PathOf returns the file holding docID.
func (f *FS) PathOf(docID string) (string, error) {
	if !docIDPattern.MatchString(docID) || docID == "." || docID == ".." {
		return "", fmt.Errorf("storage: invalid document id %q: %w", docID, apperr.ErrNotFound)
	}
	return f.safePath(docID + docExt)
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// Get loads a document. Its revision ID is the checksum of the stored body.
func (f *FS) Get(_ context.Context, docID string) (*models.Document, error) {
	return f.load(docID)
}

func (f *FS) load(docID string) (*models.Document, error) {
	abs, err := f.PathOf(docID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: document %s: %w", docID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", docID, err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", docID, err)
	}
	doc.DocumentID = docID
	rev, err := revision(doc.Body)
	if err != nil {
		return nil, err
	}
	doc.RevisionID = rev
	return &doc, nil
}

// BatchUpdate applies the requests and saves the result. Nothing is
// written when any request fails.
func (f *FS) BatchUpdate(_ context.Context, docID string, req models.BatchUpdateRequest) (*models.BatchUpdateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load(docID)
	if err != nil {
		return nil, err
	}
	if wc := req.WriteControl; wc != nil && wc.RequiredRevisionID != "" && wc.RequiredRevisionID != doc.RevisionID {
		return nil, fmt.Errorf("storage: document %s changed since revision %s: %w", docID, wc.RequiredRevisionID, apperr.ErrConflict)
	}
	updated, err := docedit.Apply(doc, req.Requests)
	if err != nil {
		return nil, fmt.Errorf("storage: update %s: %w", docID, err)
	}
	if err := f.save(updated); err != nil {
		return nil, err
	}
	rev, err := revision(updated.Body)
	if err != nil {
		return nil, err
	}
	return &models.BatchUpdateResponse{
		DocumentID:   docID,
		Replies:      make([]map[string]any, len(req.Requests)),
		WriteControl: &models.WriteControl{RequiredRevisionID: rev},
	}, nil
}

// Put stores doc under doc.DocumentID, replacing any existing document.
func (f *FS) Put(doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(doc)
}

func (f *FS) save(doc *models.Document) error {
	abs, err := f.PathOf(doc.DocumentID)
	if err != nil {
		return err
	}
	stored := *doc
	stored.RevisionID = ""
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", doc.DocumentID, err)
	}
	return writeAtomic(abs, data)
}

// Delete removes a document from the vault.
func (f *FS) Delete(docID string) error {
	abs, err := f.PathOf(docID)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: document %s: %w", docID, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", docID, err)
	}
	return nil
}

// List returns metadata for every document in the vault, sorted by ID.
func (f *FS) List(_ context.Context) ([]models.DocumentMeta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []models.DocumentMeta
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, docExt) || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, docExt)
		doc, err := f.load(id)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, models.DocumentMeta{
			ID:         id,
			Title:      doc.Title,
			RevisionID: doc.RevisionID,
			UpdatedAt:  info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func revision(body models.Body) (string, error) {
	rev, err := checksum.Revision(body)
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	return rev, nil
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".formfill-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
