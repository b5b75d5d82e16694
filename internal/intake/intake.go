package intake

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/document"
	"scanflow/internal/fileutil"
	"scanflow/internal/logging"
	"scanflow/internal/stability"
	"scanflow/internal/stage"
)

// Intake moves freshly scanned documents from the drop folder into the
// Linearized stage once the scanner has finished writing them.
type Intake struct {
	cfg      *config.Config
	auditLog *audit.Writer
	detector stability.Detector
	logger   *slog.Logger
}

// New constructs the intake stage.
func New(cfg *config.Config, auditLog *audit.Writer, logger *slog.Logger) *Intake {
	return &Intake{
		cfg:      cfg,
		auditLog: auditLog,
		detector: stability.Detector{
			QuietPeriod:  time.Duration(cfg.Watcher.QuietPeriodSeconds) * time.Second,
			PollInterval: time.Duration(cfg.Watcher.PollIntervalMS) * time.Millisecond,
			SettleDelay:  time.Duration(cfg.Watcher.SettleDelayMS) * time.Millisecond,
		},
		logger: logging.WithComponent(logger, "intake"),
	}
}

// OnNewBatch waits for the batch folder to go quiet, audits the batch, and
// moves every page document into the Linearized stage. Empty batches are
// recorded as failures and their folders removed. A document that cannot be
// moved is left in place and does not block its siblings.
func (i *Intake) OnNewBatch(ctx context.Context, batchDir string) error {
	batchID := uuid.NewString()
	folder := filepath.Base(batchDir)
	logger := i.logger.With(logging.String(logging.FieldBatchID, batchID))

	count, err := i.detector.WaitForCount(ctx, batchDir, i.cfg.DocumentExtension())
	if err != nil {
		return fmt.Errorf("wait for batch %s: %w", folder, err)
	}

	if count == 0 {
		if err := i.auditLog.Fail(folder, "", audit.ActionBatchIntake, "batch folder contained no documents"); err != nil {
			return err
		}
		logger.Warn("discarding empty batch", logging.String("folder", folder))
		return fileutil.RemoveIfEmpty(batchDir)
	}

	files, err := fileutil.ListFilesWithExt(batchDir, i.cfg.DocumentExtension())
	if err != nil {
		return fmt.Errorf("list batch %s: %w", folder, err)
	}
	if err := i.auditLog.Info(folder, "", audit.ActionBatchIntake, fmt.Sprintf("batch of %d documents received", len(files))); err != nil {
		return err
	}
	logger.Info("batch intake started",
		logging.String("folder", folder),
		logging.Int("documents", len(files)))

	for _, path := range files {
		if err := i.admit(ctx, logger, folder, path); err != nil {
			logger.Error("document intake failed",
				logging.String(logging.FieldDocument, filepath.Base(path)),
				logging.Error(err))
		}
	}

	// Only an emptied folder disappears; stragglers keep theirs.
	if err := fileutil.RemoveIfEmpty(batchDir); err != nil {
		logger.Warn("batch folder not removed", logging.Error(err))
	}
	return nil
}

// OnNewDocument admits a single document dropped directly into the scan
// root, outside any batch folder.
func (i *Intake) OnNewDocument(ctx context.Context, path string) error {
	if err := i.detector.WaitForSettle(ctx); err != nil {
		return err
	}
	return i.admit(ctx, i.logger, "", path)
}

func (i *Intake) admit(ctx context.Context, logger *slog.Logger, folder, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := filepath.Base(path)
	doc := document.Read(path)

	moved, err := stage.Move(i.cfg, path, stage.Linearized)
	if err != nil {
		if auditErr := i.auditLog.Fail(folder, file, audit.ActionDocumentIntake, err.Error()); auditErr != nil {
			return auditErr
		}
		return err
	}

	message := fmt.Sprintf("%d pages, %d bytes", doc.PageCount, doc.SizeBytes)
	if err := i.auditLog.Info(folder, file, audit.ActionDocumentIntake, message); err != nil {
		return err
	}
	logger.Info("document admitted",
		logging.String(logging.FieldDocument, file),
		logging.String(logging.FieldStage, stage.Linearized.String()),
		logging.Int("pages", doc.PageCount),
		logging.Int64("bytes", doc.SizeBytes),
		logging.String("path", moved))
	return nil
}
