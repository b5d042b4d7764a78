// Package main runs the scrapctl operator CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/scrapkart/internal/cmd/scrapctl"
)

func main() {
	log.SetPrefix("[SCRAPCTL] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scrapctl.Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("scrapctl: %v", err)
	}
}
