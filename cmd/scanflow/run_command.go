package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scanflow/internal/audit"
	"scanflow/internal/daemon"
	"scanflow/internal/ipc"
	"scanflow/internal/logging"
	"scanflow/internal/pipeline"
)

// newRunCommand runs the daemon in the foreground, mirroring scanflowd. It
// exists so an operator can watch the pipeline live without a service
// manager.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scanflow daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			auditLog, err := audit.NewWriter(cfg.AuditLogPath(), cfg.Identity.ScannerID, cfg.Identity.StationID, logger)
			if err != nil {
				return fmt.Errorf("open audit log: %w", err)
			}
			defer auditLog.Close()

			pipe, err := pipeline.New(cfg, auditLog, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			d, err := daemon.New(cfg, pipe, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Stop()

			ipcServer, err := ipc.NewServer(runCtx, ctx.socketPath(), d, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer ipcServer.Close()
			ipcServer.Serve()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "scanflow daemon running; press Ctrl+C to stop")
			<-runCtx.Done()
			return nil
		},
	}
}
