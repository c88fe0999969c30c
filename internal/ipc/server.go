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
	"strings"
	"sync"
	"time"

	"storyreel/internal/api"
	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/logs"
	"storyreel/internal/services/genai"
	"storyreel/internal/store"
)

// ServiceName prefixes every RPC method.
const ServiceName = "Storyreel"

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
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, &service{daemon: d, logger: logger, ctx: serverCtx}); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections in the background until Close.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
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

// Close stops the server and removes the socket file. Open client
// connections are served until the clients hang up.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale socket may block the next start"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC", logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx)
	resp.APIAddr = s.daemon.APIAddr()
	return nil
}

func (s *service) ProjectList(_ ProjectListRequest, resp *ProjectListResponse) error {
	projects, err := s.daemon.Projects(s.ctx)
	if err != nil {
		return err
	}
	resp.Projects = projects
	return nil
}

func (s *service) ProjectShow(req ProjectRequest, resp *ProjectResponse) error {
	p, err := s.daemon.Project(s.ctx, req.ProjectID)
	if err != nil {
		return err
	}
	resp.Project = p
	return nil
}

func (s *service) ProjectImport(req ProjectImportRequest, resp *ProjectImportResponse) error {
	p, job, err := s.daemon.Import(s.ctx, req.Title, req.Text, genai.ParseMode(req.Mode), req.Wait)
	if err != nil {
		return err
	}
	resp.Project = p
	resp.Job = job
	return nil
}

func (s *service) ProjectDelete(req ProjectRequest, resp *ProjectDeleteResponse) error {
	if err := s.daemon.DeleteProject(s.ctx, req.ProjectID); err != nil {
		return err
	}
	resp.Deleted = true
	s.logger.Info("project deleted via IPC", logging.String(logging.FieldProjectID, req.ProjectID))
	return nil
}

func (s *service) SceneToggle(req SceneToggleRequest, resp *ProjectResponse) error {
	p, err := s.daemon.ToggleScene(s.ctx, req.ProjectID, req.SceneID)
	if err != nil {
		return err
	}
	resp.Project = p
	return nil
}

func (s *service) ProjectLogs(req ProjectLogsRequest, resp *ProjectLogsResponse) error {
	entries, err := s.daemon.ProjectLogs(s.ctx, req.ProjectID, req.Since)
	if err != nil {
		return err
	}
	*resp = api.NewActivityResponse(entries, req.Since)
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	kind, ok := store.ParseJobKind(req.Kind)
	if !ok {
		return fmt.Errorf("unknown job kind %q", req.Kind)
	}
	job, err := s.daemon.Submit(s.ctx, req.ProjectID, kind, strings.TrimSpace(req.Target))
	if err != nil {
		return err
	}
	resp.Job = job
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	statuses := make([]store.JobStatus, 0, len(req.Statuses))
	for _, value := range req.Statuses {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			statuses = append(statuses, store.JobStatus(trimmed))
		}
	}
	jobs, err := s.daemon.Jobs(s.ctx, req.ProjectID, statuses...)
	if err != nil {
		return err
	}
	resp.Jobs = jobs
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, s.daemon.LogPath(), logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) LogEvents(req LogEventsRequest, resp *LogEventsResponse) error {
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
	}
	events, next, err := s.daemon.LogEvents(ctx, req.Since, req.Limit, req.Tail, req.Follow)
	if err != nil {
		return err
	}
	resp.Next = next
	resp.Events = make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if req.ProjectID != "" && evt.ProjectID != req.ProjectID {
			continue
		}
		resp.Events = append(resp.Events, evt)
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.Health = health
	if err != nil && health.Error == "" {
		return err
	}
	return nil
}

func (s *service) Prune(_ PruneRequest, resp *PruneResponse) error {
	result, err := s.daemon.Prune(s.ctx)
	if err != nil {
		return err
	}
	resp.JobsRemoved = result.JobsRemoved
	resp.LogsRemoved = result.LogsRemoved
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	if !sent {
		resp.Message = "Notifications disabled (set notifications.ntfy_topic)"
	}
	return nil
}
