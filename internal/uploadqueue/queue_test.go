package uploadqueue

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/logging"
	"scanflow/internal/services/assessor"
	"scanflow/internal/testsupport"
)

type stubUploader struct {
	mu       sync.Mutex
	err      error
	payloads [][]byte
	names    []string
}

func (s *stubUploader) Upload(ctx context.Context, files ...assessor.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, file := range files {
		s.names = append(s.names, file.Name)
		s.payloads = append(s.payloads, append([]byte(nil), file.Data...))
	}
	return s.err
}

func (s *stubUploader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

type stubCompressor struct {
	err    error
	output []byte
}

func (s *stubCompressor) Compress(ctx context.Context, inputPath, outputPath string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, s.output, 0o644)
}

func newQueue(t *testing.T, compressor *stubCompressor, uploader *stubUploader) (*Queue, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logging.NewNop())
	if err != nil {
		t.Fatalf("audit writer: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	queue := New(cfg, auditLog, compressor, uploader, logging.NewNop(), alwaysOnline())
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(queue.Stop)
	return queue, cfg
}

func alwaysOnline() Option {
	return WithOnlineProbe(func(context.Context) bool { return true })
}

func queuedDocument(t *testing.T, cfg *config.Config, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(cfg.UploadQueuedDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
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

func TestUploadSuccessArchivesDocument(t *testing.T) {
	uploader := &stubUploader{}
	queue, cfg := newQueue(t, &stubCompressor{output: []byte("small")}, uploader)

	path := queuedDocument(t, cfg, "100042.pdf", []byte("original bytes"))
	queue.Enqueue(path)

	archived := filepath.Join(cfg.UploadedDir(), "100042.pdf")
	waitFor(t, "document archived", func() bool {
		_, err := os.Stat(archived)
		return err == nil
	})
	if uploader.callCount() != 1 {
		t.Fatalf("uploads = %d, want 1", uploader.callCount())
	}
	if !bytes.Equal(uploader.payloads[0], []byte("small")) {
		t.Fatal("upload should carry the compressed bytes")
	}
}

func TestDuplicateEnqueueUploadsOnce(t *testing.T) {
	uploader := &stubUploader{}
	queue, cfg := newQueue(t, &stubCompressor{output: []byte("small")}, uploader)

	path := queuedDocument(t, cfg, "100042.pdf", []byte("original"))
	queue.Enqueue(path)
	queue.Enqueue(path)
	queue.Enqueue(path)

	waitFor(t, "upload processed", func() bool {
		_, processed := queue.Snapshot()
		return processed == 1
	})
	// A re-observation after processing must also be a no-op.
	queue.Enqueue(path)
	time.Sleep(20 * time.Millisecond)
	if uploader.callCount() != 1 {
		t.Fatalf("uploads = %d, want exactly 1", uploader.callCount())
	}
}

func TestUploadFailureParksDocument(t *testing.T) {
	uploader := &stubUploader{err: errors.New("service rejected payload")}
	queue, cfg := newQueue(t, &stubCompressor{output: []byte("small")}, uploader)

	path := queuedDocument(t, cfg, "100042.pdf", []byte("original"))
	queue.Enqueue(path)

	parked := filepath.Join(cfg.UploadErrorDir(), "100042.pdf")
	waitFor(t, "document parked", func() bool {
		_, err := os.Stat(parked)
		return err == nil
	})
	if uploader.callCount() != cfg.Upload.MaxAttempts {
		t.Fatalf("attempts = %d, want %d", uploader.callCount(), cfg.Upload.MaxAttempts)
	}
}

func TestCompressionFallbackUploadsOriginalBytes(t *testing.T) {
	uploader := &stubUploader{}
	queue, cfg := newQueue(t, &stubCompressor{err: errors.New("gs exploded")}, uploader)

	original := []byte("the exact original bytes")
	path := queuedDocument(t, cfg, "100042.pdf", original)
	queue.Enqueue(path)

	waitFor(t, "upload", func() bool { return uploader.callCount() == 1 })
	if !bytes.Equal(uploader.payloads[0], original) {
		t.Fatal("fallback upload must carry the original bytes unchanged")
	}
	if _, err := os.Stat(filepath.Join(cfg.UploadedDir(), "100042.pdf")); err != nil {
		t.Fatalf("compression failure must not fail the upload: %v", err)
	}
}

func TestStartSweepsExistingQueue(t *testing.T) {
	uploader := &stubUploader{}
	cfg := testsupport.NewConfig(t)
	auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logging.NewNop())
	if err != nil {
		t.Fatalf("audit writer: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	// Left over from a previous run.
	queuedDocument(t, cfg, "100042.pdf", []byte("a"))
	queuedDocument(t, cfg, "100043.pdf", []byte("b"))

	queue := New(cfg, auditLog, &stubCompressor{output: []byte("c")}, uploader, logging.NewNop(), alwaysOnline())
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(queue.Stop)

	waitFor(t, "sweep uploads", func() bool { return uploader.callCount() == 2 })
}

func TestOfflineDefersDrain(t *testing.T) {
	uploader := &stubUploader{}
	cfg := testsupport.NewConfig(t)
	auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logging.NewNop())
	if err != nil {
		t.Fatalf("audit writer: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })

	var connected atomic.Bool
	queue := New(cfg, auditLog, &stubCompressor{output: []byte("c")}, uploader, logging.NewNop(),
		WithOnlineProbe(func(context.Context) bool { return connected.Load() }))
	if err := queue.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(queue.Stop)

	path := queuedDocument(t, cfg, "100042.pdf", []byte("original"))
	queue.Enqueue(path)

	waitFor(t, "offline deferral", func() bool {
		pending, _ := queue.Snapshot()
		return len(pending) == 1
	})
	time.Sleep(20 * time.Millisecond)
	if uploader.callCount() != 0 {
		t.Fatal("no upload may happen while offline")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("deferred document must stay in Upload-Queued")
	}

	// Connectivity returns; a re-observation restarts the drain.
	connected.Store(true)
	queue.Enqueue(path)
	waitFor(t, "upload after reconnect", func() bool { return uploader.callCount() == 1 })
}

func TestVanishedDocumentIsSkipped(t *testing.T) {
	uploader := &stubUploader{}
	queue, cfg := newQueue(t, &stubCompressor{output: []byte("c")}, uploader)

	path := filepath.Join(cfg.UploadQueuedDir(), "ghost.pdf")
	queue.Enqueue(path)

	waitFor(t, "ghost processed", func() bool {
		_, processed := queue.Snapshot()
		return processed == 1
	})
	if uploader.callCount() != 0 {
		t.Fatal("vanished document must not be uploaded")
	}
}
