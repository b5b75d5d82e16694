package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scanflow/internal/logging"
	"scanflow/internal/testsupport"
)

type recorder struct {
	mu    sync.Mutex
	paths map[string][]string
}

func newRecorder() *recorder {
	return &recorder{paths: make(map[string][]string)}
}

func (r *recorder) record(kind string) func(context.Context, string) {
	return func(_ context.Context, path string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.paths[kind] = append(r.paths[kind], path)
	}
}

func (r *recorder) got(kind, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths[kind] {
		if p == path {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcherRoutesEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rec := newRecorder()

	w := New(cfg, Handlers{
		OnBatch:        rec.record("batch"),
		OnDocument:     rec.record("document"),
		OnLinearized:   rec.record("linearized"),
		OnUploadQueued: rec.record("queued"),
	}, logging.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	batchDir := filepath.Join(cfg.Paths.ScanDir, "batch-0001")
	if err := os.Mkdir(batchDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	loose := filepath.Join(cfg.Paths.ScanDir, "100001.pdf")
	testsupport.WriteFile(t, loose, 16)
	linearized := filepath.Join(cfg.LinearizedDir(), "100002.pdf")
	testsupport.WriteFile(t, linearized, 16)
	queued := filepath.Join(cfg.UploadQueuedDir(), "100003.pdf")
	testsupport.WriteFile(t, queued, 16)

	waitFor(t, "batch event", func() bool { return rec.got("batch", batchDir) })
	waitFor(t, "document event", func() bool { return rec.got("document", loose) })
	waitFor(t, "linearized event", func() bool { return rec.got("linearized", linearized) })
	waitFor(t, "queued event", func() bool { return rec.got("queued", queued) })
}

func TestWatcherIgnoresForeignFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	rec := newRecorder()

	w := New(cfg, Handlers{OnDocument: rec.record("document")}, logging.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	foreign := filepath.Join(cfg.Paths.ScanDir, "notes.txt")
	testsupport.WriteFile(t, foreign, 16)
	marker := filepath.Join(cfg.Paths.ScanDir, "100001.pdf")
	testsupport.WriteFile(t, marker, 16)

	waitFor(t, "marker event", func() bool { return rec.got("document", marker) })
	if rec.got("document", foreign) {
		t.Fatal("non-document files must be ignored")
	}
}
