package life

import (
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/life/internal/core/board"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("life", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8092 {
		t.Fatalf("expected default port 8092, got %d", cfg.Port)
	}
	if cfg.HTTPPort != 8093 {
		t.Fatalf("expected default http port 8093, got %d", cfg.HTTPPort)
	}
	if cfg.Interval != 40*time.Millisecond {
		t.Fatalf("expected default interval 40ms, got %s", cfg.Interval)
	}
	if cfg.OffsetRow != -1 || cfg.OffsetCol != -1 {
		t.Fatalf("expected centred offset, got (%d, %d)", cfg.OffsetRow, cfg.OffsetCol)
	}
	if cfg.WatchBuffer != 64 {
		t.Fatalf("expected default watch buffer 64, got %d", cfg.WatchBuffer)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("expected default shutdown timeout 5s, got %s", cfg.ShutdownTimeout)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("LIFE_PORT", "9100")
	t.Setenv("LIFE_PATTERN", "env-glider.txt")
	t.Setenv("LIFE_INTERVAL", "100ms")
	t.Setenv("LIFE_WIDTH", "50")

	fs := flag.NewFlagSet("life", flag.ContinueOnError)
	args := []string{
		"-pattern", "flag-glider.txt",
		"-height", "30",
		"-offset-row", "2",
		"-offset-col", "3",
		"-shutdown-timeout", "2s",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("expected env port, got %d", cfg.Port)
	}
	if cfg.PatternPath != "flag-glider.txt" {
		t.Fatalf("expected flag pattern, got %q", cfg.PatternPath)
	}
	if cfg.Interval != 100*time.Millisecond {
		t.Fatalf("expected env interval, got %s", cfg.Interval)
	}
	if cfg.Width != 50 || cfg.Height != 30 {
		t.Fatalf("expected 50x30, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.OffsetRow != 2 || cfg.OffsetCol != 3 {
		t.Fatalf("expected offset (2, 3), got (%d, %d)", cfg.OffsetRow, cfg.OffsetCol)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("expected flag shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
}

func TestParseConfigRejectsBadFlag(t *testing.T) {
	fs := flag.NewFlagSet("life", flag.ContinueOnError)
	fs.SetOutput(&strings.Builder{})
	if _, err := ParseConfig(fs, []string{"-interval", "soon"}); err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestRuntimeConfig(t *testing.T) {
	base := Config{Port: 8092, HTTPPort: 8093, Interval: 40 * time.Millisecond, OffsetRow: -1, OffsetCol: -1, ShutdownTimeout: 3 * time.Second}

	t.Run("centred", func(t *testing.T) {
		got, err := base.RuntimeConfig()
		if err != nil {
			t.Fatalf("runtime config: %v", err)
		}
		if got.Offset != nil {
			t.Fatalf("expected nil offset, got %v", *got.Offset)
		}
		if got.GRPCAddr != ":8092" || got.HTTPAddr != ":8093" {
			t.Fatalf("addrs = %q %q, want :8092 :8093", got.GRPCAddr, got.HTTPAddr)
		}
		if got.WatchBuffer <= 0 {
			t.Fatalf("expected positive watch buffer, got %d", got.WatchBuffer)
		}
		if got.ShutdownTimeout != 3*time.Second {
			t.Fatalf("shutdown timeout = %s, want 3s", got.ShutdownTimeout)
		}
	})

	t.Run("explicit offset", func(t *testing.T) {
		cfg := base
		cfg.OffsetRow, cfg.OffsetCol = 0, 4
		got, err := cfg.RuntimeConfig()
		if err != nil {
			t.Fatalf("runtime config: %v", err)
		}
		if got.Offset == nil || *got.Offset != (board.CellPosition{Row: 0, Col: 4}) {
			t.Fatalf("offset = %v, want (0, 4)", got.Offset)
		}
	})

	invalid := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "half offset", modify: func(c *Config) { c.OffsetRow = 3 }},
		{name: "negative interval", modify: func(c *Config) { c.Interval = -time.Second }},
		{name: "negative width", modify: func(c *Config) { c.Width = -5 }},
		{name: "negative shutdown timeout", modify: func(c *Config) { c.ShutdownTimeout = -time.Second }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			if _, err := cfg.RuntimeConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
