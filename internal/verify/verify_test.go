package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/logging"
	"scanflow/internal/services"
	"scanflow/internal/testsupport"
)

type stubRecognizer struct {
	barcode string
	err     error
	calls   int
}

func (s *stubRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	s.calls++
	return s.barcode, s.err
}

type recordingQueue struct {
	paths []string
}

func (q *recordingQueue) Enqueue(path string) {
	q.paths = append(q.paths, path)
}

func alwaysOnline() Option {
	return WithOnlineProbe(func(context.Context) bool { return true })
}

func newVerifier(t *testing.T, rec Recognizer, opts ...Option) (*Verifier, *config.Config, *recordingQueue) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logging.NewNop())
	if err != nil {
		t.Fatalf("audit writer: %v", err)
	}
	t.Cleanup(func() { _ = auditLog.Close() })
	queue := &recordingQueue{}
	opts = append([]Option{alwaysOnline()}, opts...)
	return New(cfg, auditLog, rec, queue, logging.NewNop(), opts...), cfg, queue
}

func linearizedDocument(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.LinearizedDir(), name)
	testsupport.WriteFile(t, path, 64)
	return path
}

func TestVerifyMatchAdvancesToUploadQueued(t *testing.T) {
	v, cfg, queue := newVerifier(t, &stubRecognizer{barcode: "100042"})
	path := linearizedDocument(t, cfg, "100042.pdf")

	if err := v.VerifyDocument(context.Background(), path); err != nil {
		t.Fatalf("VerifyDocument: %v", err)
	}
	queued := filepath.Join(cfg.UploadQueuedDir(), "100042.pdf")
	if _, err := os.Stat(queued); err != nil {
		t.Fatalf("document not in Upload-Queued: %v", err)
	}
	if len(queue.paths) != 1 || queue.paths[0] != queued {
		t.Fatalf("queue received %v, want [%s]", queue.paths, queued)
	}
}

func TestVerifyMismatchMovesToError(t *testing.T) {
	v, cfg, queue := newVerifier(t, &stubRecognizer{barcode: "999999"})
	path := linearizedDocument(t, cfg, "100042.pdf")

	if err := v.VerifyDocument(context.Background(), path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("VerifyDocument = %v, want validation error", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ErrorDir(), "100042.pdf")); err != nil {
		t.Fatalf("document not in Error: %v", err)
	}
	if len(queue.paths) != 0 {
		t.Fatal("mismatched document must not be enqueued")
	}
}

func TestVerifyEmptyBarcodeMovesToError(t *testing.T) {
	v, cfg, _ := newVerifier(t, &stubRecognizer{barcode: ""})
	path := linearizedDocument(t, cfg, "100042.pdf")

	if err := v.VerifyDocument(context.Background(), path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("VerifyDocument = %v, want validation error", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.ErrorDir(), "100042.pdf")); err != nil {
		t.Fatalf("document not in Error: %v", err)
	}
}

func TestVerifyRetriesThenFails(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("engine busy")}
	v, cfg, _ := newVerifier(t, rec)
	path := linearizedDocument(t, cfg, "100042.pdf")

	if err := v.VerifyDocument(context.Background(), path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("VerifyDocument = %v, want validation error", err)
	}
	if rec.calls != cfg.Recognition.MaxAttempts {
		t.Fatalf("recognize calls = %d, want %d", rec.calls, cfg.Recognition.MaxAttempts)
	}
	if _, err := os.Stat(filepath.Join(cfg.ErrorDir(), "100042.pdf")); err != nil {
		t.Fatalf("document not in Error: %v", err)
	}
}

func TestVerifyDefersWhileOffline(t *testing.T) {
	rec := &stubRecognizer{barcode: "100042"}
	v, cfg, _ := newVerifier(t, rec, WithOnlineProbe(func(context.Context) bool { return false }))
	path := linearizedDocument(t, cfg, "100042.pdf")

	err := v.VerifyDocument(context.Background(), path)
	if !services.Deferred(err) {
		t.Fatalf("expected deferral error, got %v", err)
	}
	if rec.calls != 0 {
		t.Fatal("recognizer must not be called while offline")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatal("deferred document must stay in Linearized")
	}
}

func TestSweepProcessesAllDocuments(t *testing.T) {
	v, cfg, queue := newVerifier(t, &stubRecognizer{barcode: "100042"})
	linearizedDocument(t, cfg, "100042.pdf")
	linearizedDocument(t, cfg, "999999.pdf")

	if err := v.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(queue.paths) != 1 {
		t.Fatalf("queued = %d, want 1", len(queue.paths))
	}
	if _, err := os.Stat(filepath.Join(cfg.ErrorDir(), "999999.pdf")); err != nil {
		t.Fatalf("mismatch not routed to Error: %v", err)
	}
}
