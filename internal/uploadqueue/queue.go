package uploadqueue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/fileutil"
	"scanflow/internal/logging"
	"scanflow/internal/preflight"
	"scanflow/internal/retry"
	"scanflow/internal/services"
	"scanflow/internal/services/assessor"
	"scanflow/internal/services/ghostscript"
	"scanflow/internal/stage"
)

// Uploader submits verified documents to the remote assessment service.
type Uploader interface {
	Upload(ctx context.Context, files ...assessor.File) error
}

// Option configures the queue.
type Option func(*Queue)

// WithOnlineProbe replaces the network probe (primarily for tests).
func WithOnlineProbe(probe func(ctx context.Context) bool) Option {
	return func(q *Queue) {
		if probe != nil {
			q.online = probe
		}
	}
}

// Queue drains verified documents to the remote service exactly once.
// Enqueue is idempotent per file name and a single drain goroutine runs at
// a time, so a document observed twice is still uploaded at most once.
type Queue struct {
	cfg        *config.Config
	auditLog   *audit.Writer
	compressor ghostscript.Compressor
	uploader   Uploader
	online     func(ctx context.Context) bool
	policy     retry.Policy
	logger     *slog.Logger

	mu        sync.Mutex
	pending   []string
	queued    map[string]bool
	processed map[string]bool
	draining  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs the upload queue.
func New(cfg *config.Config, auditLog *audit.Writer, compressor ghostscript.Compressor, uploader Uploader, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		cfg:        cfg,
		auditLog:   auditLog,
		compressor: compressor,
		uploader:   uploader,
		online: func(ctx context.Context) bool {
			return preflight.Online(ctx, cfg.Network.ProbeHost)
		},
		policy: retry.Policy{
			MaxAttempts: cfg.Upload.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Upload.RetryDelayMS) * time.Millisecond,
		},
		logger:    logging.WithComponent(logger, "uploadqueue"),
		queued:    make(map[string]bool),
		processed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start binds the queue's drain goroutines to ctx and re-enqueues any
// documents already sitting in the Upload-Queued directory from a previous
// run.
func (q *Queue) Start(ctx context.Context) error {
	q.ctx, q.cancel = context.WithCancel(ctx)

	files, err := fileutil.ListFilesWithExt(q.cfg.UploadQueuedDir(), q.cfg.DocumentExtension())
	if err != nil {
		return fmt.Errorf("sweep upload queue: %w", err)
	}
	for _, path := range files {
		q.Enqueue(path)
	}

	// Anything enqueued before Start had no context to drain under.
	q.mu.Lock()
	if len(q.pending) > 0 && !q.draining {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
	q.mu.Unlock()
	return nil
}

// Stop cancels in-flight work and waits for the drain goroutine to exit.
// Unprocessed documents stay in the Upload-Queued directory and are picked
// up again on the next Start.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Enqueue registers a verified document for upload. Documents already
// processed in this run are ignored, duplicates of pending documents
// collapse. The first pending document kicks off a drain; a re-observation
// of an already-pending document restarts a drain that deferred while
// offline.
func (q *Queue) Enqueue(path string) {
	key := filepath.Base(path)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.processed[key] {
		return
	}
	if !q.queued[key] {
		q.pending = append(q.pending, path)
		q.queued[key] = true
	}
	if !q.draining && q.ctx != nil {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
}

// Snapshot reports the queue's pending file names in drain order plus the
// number of documents processed this run.
func (q *Queue) Snapshot() (pending []string, processed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, path := range q.pending {
		pending = append(pending, filepath.Base(path))
	}
	return pending, len(q.processed)
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.pending) == 0 || q.ctx.Err() != nil {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		// Uploads while offline would only burn the retry budget and park
		// good documents in Upload-Error. Defer the whole drain instead;
		// the next observation of a queued document restarts it.
		if !q.online(q.ctx) {
			q.logger.Info("upload drain deferred while offline")
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
			return
		}

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		path := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		key := filepath.Base(path)
		done := q.process(q.ctx, path)

		q.mu.Lock()
		delete(q.queued, key)
		if done {
			q.processed[key] = true
		} else {
			// Canceled mid-flight. The document is still on disk and a
			// later Start will sweep it up again.
			q.pending = append([]string{path}, q.pending...)
			q.queued[key] = true
		}
		q.mu.Unlock()
	}
}

// process uploads one document. It returns false only when the context was
// canceled before a terminal outcome was reached.
func (q *Queue) process(ctx context.Context, path string) bool {
	file := filepath.Base(path)
	logger := q.logger.With(logging.String(logging.FieldDocument, file))

	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("queued document vanished before upload")
			return true
		}
		q.fail(logger, path, file, fmt.Sprintf("read document: %v", err))
		return true
	}

	payload := q.compress(ctx, logger, path, file, original)
	if ctx.Err() != nil {
		return false
	}

	err = retry.Do(ctx, q.policy, func(ctx context.Context) error {
		return q.uploader.Upload(ctx, assessor.File{Name: file, Data: payload})
	})
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		q.fail(logger, path, file, fmt.Sprintf("upload failed: %v", err))
		return true
	}

	if _, err := stage.Move(q.cfg, path, stage.Uploaded); err != nil {
		logger.Error("uploaded document could not be archived", logging.Error(err))
	}
	if err := q.auditLog.Pass("", file, audit.ActionUpload, fmt.Sprintf("uploaded %d bytes", len(payload))); err != nil {
		logger.Error("audit append failed", logging.Error(err))
	}
	logger.Info("document uploaded",
		logging.Int("bytes", len(payload)),
		logging.String(logging.FieldStage, stage.Uploaded.String()))
	return true
}

// compress shrinks the document with Ghostscript, falling back to the
// original bytes whenever the external tool misbehaves. Compression never
// fails a document.
func (q *Queue) compress(ctx context.Context, logger *slog.Logger, path, file string, original []byte) []byte {
	output := filepath.Join(q.cfg.Paths.WorkDir, ".compress-"+file)
	defer os.Remove(output)

	if err := q.compressor.Compress(ctx, path, output); err != nil {
		err = services.Wrap(services.ErrExternalTool, "upload", "compress", file, err)
		logger.Warn("compression failed, uploading original", logging.Error(err))
		if auditErr := q.auditLog.Info("", file, audit.ActionCompress, fmt.Sprintf("compression skipped: %v", err)); auditErr != nil {
			logger.Error("audit append failed", logging.Error(auditErr))
		}
		return original
	}

	compressed, err := os.ReadFile(output)
	if err != nil || len(compressed) == 0 {
		logger.Warn("compressed output unreadable, uploading original", logging.Error(err))
		return original
	}

	note := fmt.Sprintf("%d -> %d bytes", len(original), len(compressed))
	if err := q.auditLog.Pass("", file, audit.ActionCompress, note); err != nil {
		logger.Error("audit append failed", logging.Error(err))
	}
	logger.Info("document compressed",
		logging.Int("original_bytes", len(original)),
		logging.Int("compressed_bytes", len(compressed)))
	return compressed
}

func (q *Queue) fail(logger *slog.Logger, path, file, reason string) {
	if _, err := stage.Move(q.cfg, path, stage.UploadError); err != nil {
		logger.Error("failed document could not be parked", logging.Error(err))
	}
	if err := q.auditLog.Fail("", file, audit.ActionUpload, reason); err != nil {
		logger.Error("audit append failed", logging.Error(err))
	}
	logger.Warn("document failed to upload", logging.String("reason", reason))
}
