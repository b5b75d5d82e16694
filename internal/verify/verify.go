package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/document"
	"scanflow/internal/fileutil"
	"scanflow/internal/logging"
	"scanflow/internal/preflight"
	"scanflow/internal/retry"
	"scanflow/internal/services"
	"scanflow/internal/stage"
)

// Recognizer reads the barcode from a document's first page.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Enqueuer accepts documents that passed verification.
type Enqueuer interface {
	Enqueue(path string)
}

// Option configures the verifier.
type Option func(*Verifier)

// WithOnlineProbe replaces the network probe (primarily for tests).
func WithOnlineProbe(probe func(ctx context.Context) bool) Option {
	return func(v *Verifier) {
		if probe != nil {
			v.online = probe
		}
	}
}

// Verifier checks each linearized document's OCR barcode against its
// filename stem and routes it to Upload-Queued or Error accordingly.
type Verifier struct {
	cfg        *config.Config
	auditLog   *audit.Writer
	recognizer Recognizer
	queue      Enqueuer
	online     func(ctx context.Context) bool
	policy     retry.Policy
	logger     *slog.Logger
}

// New constructs the verification stage.
func New(cfg *config.Config, auditLog *audit.Writer, recognizer Recognizer, queue Enqueuer, logger *slog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		cfg:        cfg,
		auditLog:   auditLog,
		recognizer: recognizer,
		queue:      queue,
		online: func(ctx context.Context) bool {
			return preflight.Online(ctx, cfg.Network.ProbeHost)
		},
		policy: retry.Policy{
			MaxAttempts: cfg.Recognition.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Recognition.RetryDelayMS) * time.Millisecond,
		},
		logger: logging.WithComponent(logger, "verify"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Sweep verifies every document currently in the Linearized stage, oldest
// name first. Deferred documents stay put for the next sweep.
func (v *Verifier) Sweep(ctx context.Context) error {
	files, err := fileutil.ListFilesWithExt(v.cfg.LinearizedDir(), v.cfg.DocumentExtension())
	if err != nil {
		return fmt.Errorf("list linearized documents: %w", err)
	}
	for _, path := range files {
		err := v.VerifyDocument(ctx, path)
		switch {
		case err == nil:
		case services.Deferred(err):
			v.logger.Info("verification deferred while offline",
				logging.String(logging.FieldDocument, filepath.Base(path)))
		case errors.Is(err, services.ErrValidation):
			// Already parked in Error and audited by reject.
		default:
			v.logger.Error("verification failed",
				logging.String(logging.FieldDocument, filepath.Base(path)),
				logging.Error(err))
		}
	}
	return nil
}

// VerifyDocument runs recognition for one document and advances it through
// the stage graph. While the station is offline the document is left in
// place and a deferral error is returned; nothing is written to the audit
// log for deferrals. A rejected document is parked in Error, audited, and
// reported with an error tagged services.ErrValidation.
func (v *Verifier) VerifyDocument(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := filepath.Base(path)
	expected := document.Stem(path)

	if !v.online(ctx) {
		return services.Wrap(services.ErrUnavailable, "verify", "probe", "network offline", nil)
	}

	var barcode string
	err := retry.Do(ctx, v.policy, func(ctx context.Context) error {
		var recErr error
		barcode, recErr = v.recognizer.Recognize(ctx, path)
		return recErr
	})
	if err != nil {
		return v.reject(path, file, fmt.Sprintf("recognition failed: %v", err))
	}

	if barcode == "" {
		return v.reject(path, file, fmt.Sprintf("no barcode found, expected %q", expected))
	}
	if barcode != expected {
		return v.reject(path, file, fmt.Sprintf("barcode %q does not match filename %q", barcode, expected))
	}

	moved, err := stage.Move(v.cfg, path, stage.UploadQueued)
	if err != nil {
		return services.Wrap(services.ErrTransient, "verify", "advance", file, err)
	}
	if err := v.auditLog.Pass("", file, audit.ActionVerify, fmt.Sprintf("barcode %q matches filename", barcode)); err != nil {
		return err
	}
	v.logger.Info("document verified",
		logging.String(logging.FieldDocument, file),
		logging.String(logging.FieldStage, stage.UploadQueued.String()))
	if v.queue != nil {
		v.queue.Enqueue(moved)
	}
	return nil
}

func (v *Verifier) reject(path, file, reason string) error {
	if _, err := stage.Move(v.cfg, path, stage.Error); err != nil {
		return services.Wrap(services.ErrTransient, "verify", "reject", file, err)
	}
	if err := v.auditLog.Fail("", file, audit.ActionVerify, reason); err != nil {
		return err
	}
	v.logger.Warn("document rejected",
		logging.String(logging.FieldDocument, file),
		logging.String("reason", reason))
	return services.Wrap(services.ErrValidation, "verify", file, reason, nil)
}
