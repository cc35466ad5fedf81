// Package lifewatch follows a running simulation over gRPC and logs its
// population generation by generation.
package lifewatch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/louisbranch/life/internal/core/board"
	entrypoint "github.com/louisbranch/life/internal/platform/cmd"
	"github.com/louisbranch/life/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/life/internal/platform/grpc"
	"github.com/louisbranch/life/internal/platform/timeouts"
	lifeservice "github.com/louisbranch/life/internal/services/life/api/grpc/life"
	"github.com/louisbranch/life/internal/services/life/view"
)

// Config holds lifewatch command configuration.
type Config struct {
	Addr        string        `env:"WATCH_ADDR"`
	DialTimeout time.Duration `env:"WATCH_DIAL_TIMEOUT"`
	Generations uint64        `env:"WATCH_GENERATIONS"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Addr = discovery.OrDefaultGRPCAddr(cfg.Addr, discovery.ServiceLife)
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = timeouts.GRPCDial
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The life gRPC server address")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "gRPC dial and health timeout")
	fs.Uint64Var(&cfg.Generations, "generations", cfg.Generations, "Stop after this many generations; 0 follows forever")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run dials the simulation and logs every generation until ctx ends or the
// configured number of generations has been seen.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLifeWatch, func(ctx context.Context) error {
		logf := func(format string, args ...any) {
			log.Printf("life %s", fmt.Sprintf(format, args...))
		}
		conn, err := platformgrpc.DialWithHealth(ctx, nil,
			platformgrpc.Target{Addr: cfg.Addr, Service: lifeservice.ServiceName},
			cfg.DialTimeout, logf, platformgrpc.DefaultClientDialOptions()...)
		if err != nil {
			return fmt.Errorf("dial life: %w", err)
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Printf("close life gRPC connection: %v", err)
			}
		}()

		summary, err := Watch(ctx, lifeservice.NewClient(conn), cfg.Generations, log.Printf)
		log.Printf("watched %d generations: population %d, %d births, %d deaths, longest life %d, oldest living %d",
			summary.Generations, summary.Population, summary.Births, summary.Deaths, summary.LongestLife, summary.OldestLiving)
		return err
	})
}

// Summary describes what a watch observed.
type Summary struct {
	// Generations counts frames produced by advancing, not edits.
	Generations  uint64
	Generation   uint64
	Population   int
	Births       int
	Deaths       int
	// LongestLife is the most generations any cell stayed alive before dying.
	LongestLife  uint64
	// OldestLiving is the age of the oldest cell still alive at the end.
	OldestLiving uint64
}

// lifespans hands out each cell's birth generation as its handle. While
// resyncing, handles change hands without counting as births or deaths.
type lifespans struct {
	generation uint64
	resyncing  bool
	summary    *Summary
}

func (l *lifespans) Spawn(board.CellPosition) uint64 {
	if !l.resyncing {
		l.summary.Births++
	}
	return l.generation
}

func (l *lifespans) Despawn(_ board.CellPosition, born uint64) {
	if l.resyncing {
		return
	}
	l.summary.Deaths++
	if age := l.generation - born; age > l.summary.LongestLife {
		l.summary.LongestLife = age
	}
}

// Watch reconciles the frame stream into a view and logs one line per
// generation. limit 0 watches until ctx ends or the stream closes.
func Watch(ctx context.Context, client *lifeservice.Client, limit uint64, logf func(string, ...any)) (summary Summary, err error) {
	spans := &lifespans{summary: &summary}
	cells := view.New[uint64](spans)

	watcher, err := client.Watch(ctx)
	if err != nil {
		return summary, fmt.Errorf("watch frames: %w", err)
	}
	// Runs after the return values are set so every exit reports it.
	defer func() {
		for _, born := range cells.All() {
			if age := spans.generation - born; age > summary.OldestLiving {
				summary.OldestLiving = age
			}
		}
	}()
	for limit == 0 || summary.Generations < limit {
		msg, err := watcher.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return summary, nil
			}
			return summary, fmt.Errorf("receive frame: %w", err)
		}

		switch {
		case msg.Snapshot != nil:
			spans.generation = msg.Snapshot.Generation
			spans.resyncing = true
			cells.Reset(msg.Snapshot.Alive)
			spans.resyncing = false
			summary.Generation = msg.Snapshot.Generation
			logf("snapshot generation %d: %dx%d, population %d",
				msg.Snapshot.Generation, msg.Snapshot.Width, msg.Snapshot.Height, cells.Len())
		case msg.Frame != nil:
			spans.generation = msg.Frame.Generation
			cells.Apply(msg.Frame.Delta)
			summary.Generation = msg.Frame.Generation
			if msg.Frame.Edit {
				logf("edit at generation %d: population %d", msg.Frame.Generation, cells.Len())
				break
			}
			summary.Generations++
			logf("generation %d: population %d (+%d -%d)",
				msg.Frame.Generation, cells.Len(), msg.Frame.Delta.Born(), msg.Frame.Delta.Died())
		}
		summary.Population = cells.Len()
	}
	return summary, nil
}
