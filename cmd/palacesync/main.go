// Package main runs one palace sync operation from the command line.
//
// It reads config from .env, the environment, and flags, then prints the
// operation's result to stdout.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	palacesynccmd "github.com/louisbranch/palacesync/internal/cmd/palacesync"
	"github.com/louisbranch/palacesync/internal/platform/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := palacesynccmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PALACE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := palacesynccmd.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("palacesync: %v", err)
	}
}
