// Package main follows a life simulation and logs each generation.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	lifewatchcmd "github.com/louisbranch/life/internal/cmd/lifewatch"
	"github.com/louisbranch/life/internal/platform/config"
)

func main() {
	cfg, err := lifewatchcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[LIFEWATCH] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := lifewatchcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}
