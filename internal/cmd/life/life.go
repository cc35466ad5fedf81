// Package life parses simulation server flags and launches the runtime.
package life

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/louisbranch/life/internal/core/board"
	entrypoint "github.com/louisbranch/life/internal/platform/cmd"
	"github.com/louisbranch/life/internal/platform/discovery"
	server "github.com/louisbranch/life/internal/services/life/app"
	"github.com/louisbranch/life/internal/services/life/simulation"
)

// Config holds life command configuration. Environment variables carry the
// LIFE_ prefix, e.g. LIFE_PATTERN.
type Config struct {
	Port        int           `env:"PORT"`
	HTTPPort    int           `env:"HTTP_PORT"`
	PatternPath string        `env:"PATTERN"`
	ScriptPath  string        `env:"SCRIPT"`
	Interval    time.Duration `env:"INTERVAL"     envDefault:"40ms"`
	Width       int           `env:"WIDTH"`
	Height      int           `env:"HEIGHT"`
	OffsetRow   int           `env:"OFFSET_ROW"   envDefault:"-1"`
	OffsetCol   int           `env:"OFFSET_COL"   envDefault:"-1"`
	WatchBuffer int           `env:"WATCH_BUFFER" envDefault:"64"`

	// ShutdownTimeout bounds both the listener drain and the telemetry flush.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port == 0 {
		cfg.Port = discovery.GRPCPort(discovery.ServiceLife)
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = discovery.HTTPPort(discovery.ServiceLife)
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The life gRPC server port")
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "The life websocket server port")
	fs.StringVar(&cfg.PatternPath, "pattern", cfg.PatternPath, "Initial pattern file (X alive, - dead)")
	fs.StringVar(&cfg.ScriptPath, "script", cfg.ScriptPath, "Lua seed script; wins over -pattern")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Time between generations; 0 pauses")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Board width; 0 uses the pattern width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Board height; 0 uses the pattern height")
	fs.IntVar(&cfg.OffsetRow, "offset-row", cfg.OffsetRow, "Pattern top row; -1 centres")
	fs.IntVar(&cfg.OffsetCol, "offset-col", cfg.OffsetCol, "Pattern left column; -1 centres")
	fs.IntVar(&cfg.WatchBuffer, "watch-buffer", cfg.WatchBuffer, "Frames buffered per watcher before it is resynchronised")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for draining listeners and flushing traces")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuntimeConfig validates cfg and converts it for the server.
func (cfg Config) RuntimeConfig() (server.RuntimeConfig, error) {
	if cfg.Interval < 0 {
		return server.RuntimeConfig{}, fmt.Errorf("interval must not be negative, got %s", cfg.Interval)
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return server.RuntimeConfig{}, fmt.Errorf("board size must not be negative, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.ShutdownTimeout < 0 {
		return server.RuntimeConfig{}, fmt.Errorf("shutdown timeout must not be negative, got %s", cfg.ShutdownTimeout)
	}
	var offset *board.CellPosition
	switch {
	case cfg.OffsetRow < 0 && cfg.OffsetCol < 0:
	case cfg.OffsetRow >= 0 && cfg.OffsetCol >= 0:
		offset = &board.CellPosition{Row: cfg.OffsetRow, Col: cfg.OffsetCol}
	default:
		return server.RuntimeConfig{}, errors.New("offset-row and offset-col must be set together")
	}
	buffer := cfg.WatchBuffer
	if buffer <= 0 {
		buffer = simulation.DefaultBuffer
	}

	return server.RuntimeConfig{
		GRPCAddr:    fmt.Sprintf(":%d", cfg.Port),
		HTTPAddr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		ScriptPath:  cfg.ScriptPath,
		PatternPath: cfg.PatternPath,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Offset:      offset,
		Interval:    cfg.Interval,
		WatchBuffer: buffer,

		ShutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Run starts the simulation server.
func Run(ctx context.Context, cfg Config) error {
	runtimeCfg, err := cfg.RuntimeConfig()
	if err != nil {
		return err
	}
	options := entrypoint.RunOptions{ShutdownTimeout: runtimeCfg.ShutdownTimeout}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceLife, options, func(ctx context.Context) error {
		return server.Run(ctx, runtimeCfg)
	})
}
