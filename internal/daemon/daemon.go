package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scanflow/internal/config"
	"scanflow/internal/logging"
	"scanflow/internal/pipeline"
	"scanflow/internal/preflight"
)

// Daemon coordinates the scan pipeline and enforces single-instance
// execution per workstation.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	AuditLogPath string
	Pipeline     pipeline.Status
	Preflight    []preflight.Result
}

// New constructs a daemon around an already-built pipeline.
func New(cfg *config.Config, pipe *pipeline.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || pipe == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "scanflowd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		pipeline: pipe,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// SocketPath returns the IPC socket location for this configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "scanflowd.sock")
}

// Start acquires the instance lock and brings up the pipeline.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scanflow daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start pipeline: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("scanflow daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop winds down the pipeline and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scanflow daemon stopped")
}

// Status reports combined daemon, pipeline, and readiness state.
func (d *Daemon) Status(ctx context.Context) Status {
	pipeStatus, err := d.pipeline.Status()
	if err != nil {
		d.logger.Warn("pipeline status unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		AuditLogPath: d.cfg.AuditLogPath(),
		Pipeline:     pipeStatus,
		Preflight:    preflight.RunAll(ctx, d.cfg),
	}
}
