package pipeline

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
	"scanflow/internal/intake"
	"scanflow/internal/logging"
	"scanflow/internal/services"
	"scanflow/internal/services/assessor"
	"scanflow/internal/services/ghostscript"
	"scanflow/internal/services/recognition"
	"scanflow/internal/stage"
	"scanflow/internal/uploadqueue"
	"scanflow/internal/verify"
	"scanflow/internal/watcher"
)

// Status is a point-in-time snapshot of the pipeline.
type Status struct {
	Running      bool
	Since        time.Time
	StageCounts  map[stage.Stage]int
	QueuePending []string
	Processed    int
}

// Option overrides a collaborator, primarily for tests.
type Option func(*Manager)

// WithCompressor replaces the Ghostscript client.
func WithCompressor(compressor ghostscript.Compressor) Option {
	return func(m *Manager) {
		if compressor != nil {
			m.compressor = compressor
		}
	}
}

// WithRecognizer replaces the recognition client.
func WithRecognizer(recognizer verify.Recognizer) Option {
	return func(m *Manager) {
		if recognizer != nil {
			m.recognizer = recognizer
		}
	}
}

// WithUploader replaces the assessment upload client.
func WithUploader(uploader uploadqueue.Uploader) Option {
	return func(m *Manager) {
		if uploader != nil {
			m.uploader = uploader
		}
	}
}

// WithOnlineProbe replaces the verification network probe.
func WithOnlineProbe(probe func(ctx context.Context) bool) Option {
	return func(m *Manager) {
		m.onlineProbe = probe
	}
}

// Manager wires the watcher, intake, verification, and upload stages into
// one runnable pipeline.
type Manager struct {
	cfg      *config.Config
	auditLog *audit.Writer
	logger   *slog.Logger

	compressor  ghostscript.Compressor
	recognizer  verify.Recognizer
	uploader    uploadqueue.Uploader
	onlineProbe func(ctx context.Context) bool

	intake   *intake.Intake
	verifier *verify.Verifier
	queue    *uploadqueue.Queue
	watch    *watcher.Watcher

	mu      sync.Mutex
	running bool
	since   time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds the pipeline for the given configuration. External
// collaborators come from the config unless overridden by options.
func New(cfg *config.Config, auditLog *audit.Writer, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		auditLog: auditLog,
		logger:   logging.WithComponent(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.compressor == nil {
		compressor, err := ghostscript.New(cfg.Compression.Binary, cfg.Compression.Preset, cfg.Compression.TimeoutSeconds)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build compressor", "", err)
		}
		m.compressor = compressor
	}
	if m.recognizer == nil {
		recognizer, err := recognition.New(recognition.Config{
			Endpoint: cfg.Recognition.Endpoint,
			Timeout:  time.Duration(cfg.Recognition.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build recognizer", "", err)
		}
		m.recognizer = recognizer
	}
	if m.uploader == nil {
		uploader, err := assessor.New(assessor.Config{
			Endpoint:      cfg.Upload.Endpoint,
			Timeout:       time.Duration(cfg.Upload.TimeoutSeconds) * time.Second,
			MaxBatchFiles: cfg.Upload.MaxBatchFiles,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build uploader", "", err)
		}
		m.uploader = uploader
	}

	var queueOpts []uploadqueue.Option
	if m.onlineProbe != nil {
		queueOpts = append(queueOpts, uploadqueue.WithOnlineProbe(m.onlineProbe))
	}
	m.queue = uploadqueue.New(cfg, auditLog, m.compressor, m.uploader, logger, queueOpts...)

	var verifyOpts []verify.Option
	if m.onlineProbe != nil {
		verifyOpts = append(verifyOpts, verify.WithOnlineProbe(m.onlineProbe))
	}
	m.verifier = verify.New(cfg, auditLog, m.recognizer, m.queue, logger, verifyOpts...)
	m.intake = intake.New(cfg, auditLog, logger)

	m.watch = watcher.New(cfg, watcher.Handlers{
		OnBatch: func(ctx context.Context, dir string) {
			if err := m.intake.OnNewBatch(ctx, dir); err != nil && ctx.Err() == nil {
				m.logger.Error("batch intake failed", logging.String("folder", filepath.Base(dir)), logging.Error(err))
			}
		},
		OnDocument: func(ctx context.Context, path string) {
			if err := m.intake.OnNewDocument(ctx, path); err != nil && ctx.Err() == nil {
				m.logger.Error("document intake failed", logging.String(logging.FieldDocument, filepath.Base(path)), logging.Error(err))
			}
		},
		OnLinearized: func(ctx context.Context, path string) {
			if err := m.verifier.Sweep(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("verification sweep failed", logging.Error(err))
			}
		},
		OnUploadQueued: func(_ context.Context, path string) {
			m.queue.Enqueue(path)
		},
	}, logger)

	return m, nil
}

// Start brings the pipeline up: stage directories are created, documents
// left over from a previous run are swept back into flight, and the watcher
// begins feeding new arrivals.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	if err := m.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := m.queue.Start(runCtx); err != nil {
		cancel()
		return err
	}
	if err := m.watch.Start(runCtx); err != nil {
		m.queue.Stop()
		cancel()
		return err
	}
	m.cancel = cancel
	m.running = true
	m.since = time.Now()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.recover(runCtx)
	}()

	m.logger.Info("pipeline started",
		logging.String("scan_dir", m.cfg.Paths.ScanDir),
		logging.String("work_dir", m.cfg.Paths.WorkDir))
	return nil
}

// recover processes whatever the previous run left behind: batches and
// loose documents in the scan root, then unverified documents in
// Linearized. The upload queue sweeps its own directory during Start.
func (m *Manager) recover(ctx context.Context) {
	entries, err := os.ReadDir(m.cfg.Paths.ScanDir)
	if err != nil {
		m.logger.Error("scan root sweep failed", logging.Error(err))
	} else {
		for _, entry := range entries {
			path := filepath.Join(m.cfg.Paths.ScanDir, entry.Name())
			if m.isStageDir(path) {
				continue
			}
			if entry.IsDir() {
				if err := m.intake.OnNewBatch(ctx, path); err != nil && ctx.Err() == nil {
					m.logger.Error("batch recovery failed", logging.String("folder", entry.Name()), logging.Error(err))
				}
				continue
			}
			if filepath.Ext(entry.Name()) == m.cfg.DocumentExtension() {
				if err := m.intake.OnNewDocument(ctx, path); err != nil && ctx.Err() == nil {
					m.logger.Error("document recovery failed", logging.String(logging.FieldDocument, entry.Name()), logging.Error(err))
				}
			}
		}
	}

	if err := m.verifier.Sweep(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("verification sweep failed", logging.Error(err))
	}
}

// isStageDir guards against configs that nest the work dir inside the scan
// root, which would otherwise make stage directories look like batches.
func (m *Manager) isStageDir(path string) bool {
	if path == m.cfg.Paths.WorkDir {
		return true
	}
	for _, dir := range m.cfg.StageDirs() {
		if path == dir {
			return true
		}
	}
	return false
}

// Stop winds the pipeline down. In-flight uploads are canceled and their
// documents stay in Upload-Queued for the next run.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.watch.Stop()
	m.queue.Stop()
	m.wg.Wait()
	m.logger.Info("pipeline stopped")
}

// Status reports stage directory counts and queue state.
func (m *Manager) Status() (Status, error) {
	m.mu.Lock()
	running := m.running
	since := m.since
	m.mu.Unlock()

	counts, err := stage.Counts(m.cfg)
	if err != nil {
		return Status{}, err
	}
	pending, processed := m.queue.Snapshot()
	return Status{
		Running:      running,
		Since:        since,
		StageCounts:  counts,
		QueuePending: pending,
		Processed:    processed,
	}, nil
}
