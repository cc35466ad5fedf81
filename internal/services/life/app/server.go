// Package server wires the life simulation runtime with its gRPC and
// websocket listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/core/pattern"
	"github.com/louisbranch/life/internal/core/script"
	"github.com/louisbranch/life/internal/platform/timeouts"
	lifeservice "github.com/louisbranch/life/internal/services/life/api/grpc/life"
	"github.com/louisbranch/life/internal/services/life/api/ws"
	"github.com/louisbranch/life/internal/services/life/simulation"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Board size used when neither a pattern nor explicit dimensions are given.
const (
	DefaultWidth  = 40
	DefaultHeight = 40
)

// RuntimeConfig defines the inputs for one simulation process.
type RuntimeConfig struct {
	GRPCAddr string
	HTTPAddr string

	// ScriptPath wins over PatternPath when both are set.
	ScriptPath  string
	PatternPath string

	Width  int
	Height int
	// Offset places the pattern explicitly; nil centres it.
	Offset *board.CellPosition

	// Interval between generations; zero pauses the scheduler.
	Interval    time.Duration
	WatchBuffer int

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts a simulation and its listeners.
type Server struct {
	sim             *simulation.Simulation
	scheduler       *simulation.Scheduler
	grpcListener    net.Listener
	httpListener    net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// SeedBoard builds the initial board: a seed script, then a pattern file,
// then a blank board.
func SeedBoard(cfg RuntimeConfig) (*board.Board, error) {
	if path := strings.TrimSpace(cfg.ScriptPath); path != "" {
		b, err := script.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("run seed script: %w", err)
		}
		return b, nil
	}
	if path := strings.TrimSpace(cfg.PatternPath); path != "" {
		p, err := pattern.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return pattern.NewBoard(p, pattern.Layout{Width: cfg.Width, Height: cfg.Height, Offset: cfg.Offset})
	}
	width, height := cfg.Width, cfg.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	return board.New(width, height, nil)
}

// NewServer seeds the board and opens both listeners.
func NewServer(cfg RuntimeConfig) (*Server, error) {
	if cfg.WatchBuffer <= 0 {
		cfg.WatchBuffer = simulation.DefaultBuffer
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	b, err := SeedBoard(cfg)
	if err != nil {
		return nil, err
	}

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcListener.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	sim := simulation.New(b)
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	lifeservice.Register(grpcServer, lifeservice.NewService(sim, cfg.WatchBuffer))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(lifeservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	httpServer := &http.Server{
		Handler:           ws.NewHandler(sim, cfg.WatchBuffer),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return &Server{
		sim:             sim,
		scheduler:       simulation.NewScheduler(cfg.Interval),
		grpcListener:    grpcListener,
		httpListener:    httpListener,
		grpcServer:      grpcServer,
		health:          healthServer,
		httpServer:      httpServer,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the websocket listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Simulation returns the hosted simulation.
func (s *Server) Simulation() *simulation.Simulation {
	return s.sim
}

// Run creates and serves a simulation until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	server, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("init life server: %w", err)
	}
	return server.Serve(ctx)
}

// Serve runs the listeners and the scheduler until ctx ends or a listener fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	snapshot := s.sim.Snapshot()
	log.Printf("life board %dx%d with %d live cells", snapshot.Width, snapshot.Height, len(snapshot.Alive))
	log.Printf("life gRPC listening at %v", s.grpcListener.Addr())
	log.Printf("life websocket listening at %v", s.httpListener.Addr())
	if s.scheduler.Paused() {
		log.Printf("life scheduler paused; step through gRPC")
	} else {
		log.Printf("life scheduler interval %s", s.scheduler.Interval())
	}

	serveErr := make(chan error, 2)
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve http: %w", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		_ = s.scheduler.Run(runCtx, nil, func(ctx context.Context) {
			s.sim.Step(ctx)
		})
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	cancel()
	<-schedulerDone

	if shutdownErr := s.shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

func (s *Server) shutdown() error {
	s.health.Shutdown()
	// Watch streams and sockets only end once their subscriptions close.
	s.sim.Close()
	s.grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.sim != nil {
		s.sim.Close()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			log.Printf("close http server: %v", err)
		}
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
}
