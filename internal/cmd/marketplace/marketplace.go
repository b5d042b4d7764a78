// Package marketplace parses marketplace service flags and launches the service.
package marketplace

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/scrapkart/internal/platform/cmd"
	server "github.com/louisbranch/scrapkart/internal/services/marketplace/app"
)

// Config holds marketplace command configuration.
type Config struct {
	server.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The marketplace HTTP listen address")
	fs.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "Persistence backend (memory, sqlite, postgres)")
	fs.StringVar(&cfg.Store.DBPath, "db-path", cfg.Store.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Store.PostgresDSN, "postgres-dsn", cfg.Store.PostgresDSN, "PostgreSQL connection string")
	fs.BoolVar(&cfg.Store.Latency, "latency", cfg.Store.Latency, "Simulate gateway latency on the memory backend")
	fs.StringVar(&cfg.DeliveryFee, "delivery-fee", cfg.DeliveryFee, "Flat delivery fee added to every order")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO 4217 currency code for totals")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "BCP 47 language tag for formatted totals")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the marketplace HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMarketplace, func(context.Context) error {
		return server.Run(ctx, cfg.Config)
	})
}
