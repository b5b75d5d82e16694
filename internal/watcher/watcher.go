package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"scanflow/internal/config"
	"scanflow/internal/logging"
)

// Handlers receives filesystem observations. Every callback runs on its own
// goroutine because batch intake blocks on stability detection.
type Handlers struct {
	OnBatch        func(ctx context.Context, dir string)
	OnDocument     func(ctx context.Context, path string)
	OnLinearized   func(ctx context.Context, path string)
	OnUploadQueued func(ctx context.Context, path string)
}

// Watcher observes the scan root and the active stage directories and routes
// filesystem events to the pipeline.
type Watcher struct {
	cfg      *config.Config
	handlers Handlers
	logger   *slog.Logger

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a watcher over the configured directories.
func New(cfg *config.Config, handlers Handlers, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		handlers: handlers,
		logger:   logging.WithComponent(logger, "watcher"),
	}
}

// Start begins watching. Events arriving after ctx is canceled are dropped.
func (w *Watcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	for _, dir := range []string{w.cfg.Paths.ScanDir, w.cfg.LinearizedDir(), w.cfg.UploadQueuedDir()} {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fs = fs

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(runCtx)
	return nil
}

// Stop closes the underlying watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.fs != nil {
		_ = w.fs.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				w.dispatch(ctx, event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	dir := filepath.Dir(path)
	switch dir {
	case w.cfg.Paths.ScanDir:
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.logger.Info("batch folder observed", logging.String("folder", filepath.Base(path)))
			w.spawn(ctx, path, w.handlers.OnBatch)
			return
		}
		if w.isDocument(path) {
			w.logger.Info("loose document observed", logging.String(logging.FieldDocument, filepath.Base(path)))
			w.spawn(ctx, path, w.handlers.OnDocument)
		}
	case w.cfg.LinearizedDir():
		if w.isDocument(path) {
			w.spawn(ctx, path, w.handlers.OnLinearized)
		}
	case w.cfg.UploadQueuedDir():
		if w.isDocument(path) {
			w.spawn(ctx, path, w.handlers.OnUploadQueued)
		}
	}
}

func (w *Watcher) spawn(ctx context.Context, path string, handler func(ctx context.Context, path string)) {
	if handler == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		handler(ctx, path)
	}()
}

func (w *Watcher) isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), w.cfg.DocumentExtension())
}
