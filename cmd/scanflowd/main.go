package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scanflow/internal/audit"
	"scanflow/internal/config"
	"scanflow/internal/daemon"
	"scanflow/internal/ipc"
	"scanflow/internal/logging"
	"scanflow/internal/pipeline"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewForDaemon(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logger)
	if err != nil {
		log.Fatalf("open audit log: %v", err)
	}
	defer auditLog.Close()

	pipe, err := pipeline.New(cfg, auditLog, logger)
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	d, err := daemon.New(cfg, pipe, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Stop()

	ipcServer, err := ipc.NewServer(ctx, daemon.SocketPath(cfg), d, logger)
	if err != nil {
		log.Fatalf("start IPC server: %v", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-ctx.Done()
	logger.Info("scanflowd shutting down")
}
