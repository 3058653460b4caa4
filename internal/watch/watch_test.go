package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) record(_ context.Context, changed []string) {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func start(t *testing.T, paths []string, fn ChangeFunc) {
	t.Helper()
	w, err := New(paths, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, fn)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_ChangeTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "answers.json")
	_ = os.WriteFile(answers, []byte("[]"), 0o644)

	rec := &recorder{}
	start(t, []string{answers}, rec.record)

	_ = os.WriteFile(answers, []byte(`[{"outline_id": "1"}]`), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return rec.count() == 1 }, "expected one callback")
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) > 0 && (len(rec.calls[0]) != 1 || rec.calls[0][0] != answers) {
		t.Errorf("changed = %v", rec.calls[0])
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "answers.json")
	_ = os.WriteFile(answers, []byte("[]"), 0o644)

	rec := &recorder{}
	start(t, []string{answers}, rec.record)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("callbacks = %d, want 0", n)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "answers.json")
	_ = os.WriteFile(answers, []byte("[]"), 0o644)

	rec := &recorder{}
	start(t, []string{answers}, rec.record)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(answers, []byte("[]"), 0o644)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return rec.count() >= 1 }, "expected a callback")
	time.Sleep(200 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("callbacks = %d, want 1", n)
	}
}

func TestWatcher_ReplacedByRename(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "form.json")
	_ = os.WriteFile(doc, []byte("{}"), 0o644)

	rec := &recorder{}
	start(t, []string{doc}, rec.record)

	tmp := filepath.Join(dir, ".form.json.tmp")
	_ = os.WriteFile(tmp, []byte(`{"title": "x"}`), 0o644)
	_ = os.Rename(tmp, doc)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return rec.count() == 1 }, "atomic replace not seen")
}

func TestWatcher_DropsOwnWrites(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "answers.json")
	doc := filepath.Join(dir, "form.json")
	_ = os.WriteFile(answers, []byte("[]"), 0o644)
	_ = os.WriteFile(doc, []byte("{}"), 0o644)

	rec := &recorder{}
	start(t, []string{answers, doc}, func(ctx context.Context, changed []string) {
		rec.record(ctx, changed)
		_ = os.WriteFile(doc, []byte(`{"filled": true}`), 0o644)
	})

	_ = os.WriteFile(answers, []byte(`[{"outline_id": "2"}]`), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool { return rec.count() >= 1 }, "expected a callback")
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("callbacks = %d, want 1 (own write re-triggered)", n)
	}
}

func TestNew_NoPaths(t *testing.T) {
	if _, err := New(nil, 0, nil); err == nil {
		t.Error("expected error for no paths")
	}
}
