// Package server implements the gRPC server for the daemon.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

// Settings is the settings store as seen by the server.
type Settings interface {
	GetMany(keys []string) (map[string]interface{}, error)
	Set(key string, value interface{}) error
}

// Session is the daemon session as seen by the server.
type Session interface {
	Status() models.DaemonStatus
	Entities() []models.EntityState
	SettingsChanged()
}

// Options configures a Server.
type Options struct {
	Settings Settings
	Session  Session
	Logger   *zap.Logger

	// Shutdown is called by DaemonService.Shutdown. Defaults to sending
	// SIGINT to the current process.
	Shutdown func()
}

// Server is the daemon's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int
	startedAt  time.Time
	opts       Options
}

// New creates a new server listening on localhost at the specified port.
// Pass port 0 for dynamic allocation.
func New(port int, opts Options) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Shutdown == nil {
		opts.Shutdown = RequestShutdown
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(logRequests(opts.Logger)))

	srv := &Server{
		grpcServer: grpcServer,
		listener:   listener,
		port:       actualPort,
		startedAt:  time.Now().UTC(),
		opts:       opts,
	}

	rpc.RegisterSettingsServiceServer(grpcServer, &settingsService{settings: opts.Settings, session: opts.Session})
	rpc.RegisterDaemonServiceServer(grpcServer, &daemonService{server: srv})
	rpc.RegisterHomeAssistantServiceServer(grpcServer, &homeAssistantService{session: opts.Session})

	return srv, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// RequestShutdown sends SIGINT to the current process to trigger a graceful shutdown.
func RequestShutdown() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}

func logRequests(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{zap.String("method", info.FullMethod), zap.Duration("took", time.Since(start))}
		if err != nil {
			logger.Debug("RPC failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("RPC", fields...)
		}
		return resp, err
	}
}
