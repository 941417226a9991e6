package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	innercitycmd "github.com/louisbranch/innercity/internal/cmd/innercity"
)

func main() {
	cfg, err := innercitycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[INNERCITY] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := innercitycmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
