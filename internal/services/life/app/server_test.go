package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/core/pattern"
	"github.com/louisbranch/life/internal/core/script"
	platformgrpc "github.com/louisbranch/life/internal/platform/grpc"
	lifeservice "github.com/louisbranch/life/internal/services/life/api/grpc/life"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSeedBoard(t *testing.T) {
	dir := t.TempDir()
	glider := writeFile(t, dir, "glider.txt", "-X-\n--X\nXXX\n")
	broken := writeFile(t, dir, "broken.txt", "-X-\n--\n")
	seed := writeFile(t, dir, "seed.lua", `
local b = Board.new(6, 4)
b:set(1, 1)
return b
`)

	tests := []struct {
		name       string
		cfg        RuntimeConfig
		wantWidth  int
		wantHeight int
		wantAlive  int
		wantErr    error
	}{
		{name: "blank default", cfg: RuntimeConfig{}, wantWidth: DefaultWidth, wantHeight: DefaultHeight},
		{name: "blank sized", cfg: RuntimeConfig{Width: 12, Height: 9}, wantWidth: 12, wantHeight: 9},
		{name: "pattern size", cfg: RuntimeConfig{PatternPath: glider}, wantWidth: 3, wantHeight: 3, wantAlive: 5},
		{name: "pattern centred", cfg: RuntimeConfig{PatternPath: glider, Width: 20, Height: 20}, wantWidth: 20, wantHeight: 20, wantAlive: 5},
		{name: "script wins", cfg: RuntimeConfig{ScriptPath: seed, PatternPath: glider}, wantWidth: 6, wantHeight: 4, wantAlive: 1},
		{name: "malformed pattern", cfg: RuntimeConfig{PatternPath: broken}, wantErr: pattern.ErrMalformedPattern},
		{name: "missing pattern", cfg: RuntimeConfig{PatternPath: filepath.Join(dir, "nope.txt")}, wantErr: os.ErrNotExist},
		{name: "pattern too large", cfg: RuntimeConfig{PatternPath: glider, Width: 2, Height: 2}, wantErr: pattern.ErrPatternTooLarge},
		{name: "missing script", cfg: RuntimeConfig{ScriptPath: filepath.Join(dir, "nope.lua")}, wantErr: script.ErrScriptFailed},
		{name: "negative size", cfg: RuntimeConfig{Width: -1}, wantErr: board.ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SeedBoard(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("seed board: %v", err)
			}
			if b.Width() != tt.wantWidth || b.Height() != tt.wantHeight {
				t.Fatalf("size = %dx%d, want %dx%d", b.Width(), b.Height(), tt.wantWidth, tt.wantHeight)
			}
			if got := b.Population(); got != tt.wantAlive {
				t.Fatalf("population = %d, want %d", got, tt.wantAlive)
			}
		})
	}
}

func TestServerStreamsScheduledGenerations(t *testing.T) {
	dir := t.TempDir()
	srv, err := NewServer(RuntimeConfig{
		GRPCAddr:    "127.0.0.1:0",
		HTTPAddr:    "127.0.0.1:0",
		PatternPath: writeFile(t, dir, "blinker.txt", "-----\n-----\n-XXX-\n-----\n-----\n"),
		Interval:    5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := platformgrpc.DialWithHealth(ctx, nil, platformgrpc.Target{Addr: srv.Addr(), Service: lifeservice.ServiceName}, time.Second, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial life server: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	watcher, err := lifeservice.NewClient(conn).Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	first, err := watcher.Recv()
	if err != nil {
		t.Fatalf("recv snapshot: %v", err)
	}
	if first.Snapshot == nil {
		t.Fatalf("first message = %+v, want snapshot", first)
	}

	last := first.Snapshot.Generation
	for i := 0; i < 3; i++ {
		msg, err := watcher.Recv()
		if err != nil {
			t.Fatalf("recv frame: %v", err)
		}
		if msg.Frame == nil {
			t.Fatalf("message %d = %+v, want frame", i, msg)
		}
		if msg.Frame.Generation != last+1 {
			t.Fatalf("generation = %d, want %d", msg.Frame.Generation, last+1)
		}
		if len(msg.Frame.Delta) != 4 {
			t.Fatalf("blinker delta size = %d, want 4", len(msg.Frame.Delta))
		}
		last = msg.Frame.Generation
	}
}
