// Package cmd holds the startup plumbing shared by every binary: env and
// flag parsing plus telemetry setup around the service run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/config"
	"github.com/louisbranch/scrapkart/internal/platform/otel"
	"github.com/louisbranch/scrapkart/internal/platform/timeouts"
)

// Binary names, also used as the telemetry service name.
const (
	ServiceMarketplace = "marketplace"
	ServiceScrapctl    = "scrapctl"
)

// ParseConfig merges .env into the process environment, then decodes the
// environment into cfg. Flags registered afterwards default to these values.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs; nil args parse as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs tracing for service, runs it and flushes spans
// once run returns, even when ctx is already cancelled.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return fmt.Errorf("service name is required")
	case run == nil:
		return fmt.Errorf("run function is required")
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	started := time.Now()
	log.Printf("service starting name=%s", service)

	runErr := run(ctx)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		log.Printf("service telemetry flush failed name=%s err=%v", service, err)
	}
	log.Printf("service stopped name=%s uptime=%s", service, time.Since(started).Round(time.Millisecond))
	return runErr
}
