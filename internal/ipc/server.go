package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"scanflow/internal/daemon"
	"scanflow/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logging.WithComponent(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Scanflow", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logging.WithComponent(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("pipeline start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "pipeline started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("pipeline stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockFilePath
	resp.AuditLogPath = status.AuditLogPath
	resp.QueuePending = status.Pipeline.QueuePending
	resp.Processed = status.Pipeline.Processed
	resp.StageCounts = make(map[string]int, len(status.Pipeline.StageCounts))
	for s, n := range status.Pipeline.StageCounts {
		resp.StageCounts[s.String()] = n
	}
	resp.Preflight = make([]PreflightResult, 0, len(status.Preflight))
	for _, check := range status.Preflight {
		resp.Preflight = append(resp.Preflight, PreflightResult{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Pending = status.Pipeline.QueuePending
	resp.Processed = status.Pipeline.Processed
	return nil
}
