// Package scrapctl implements the operator CLI that works directly against
// the configured marketplace store.
package scrapctl

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	entrypoint "github.com/louisbranch/scrapkart/internal/platform/cmd"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/auth"
	server "github.com/louisbranch/scrapkart/internal/services/marketplace/app"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/notify"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// Config holds the environment the CLI reads.
type Config struct {
	Store    server.StoreConfig
	Auth     auth.Config
	Gemini   assist.GeminiConfig
	Telegram notify.TelegramConfig
}

type cli struct {
	cfg      Config
	gateway  storage.Gateway
	services server.Services
	// openGateway is swapped in tests.
	openGateway func(context.Context, server.StoreConfig) (storage.Gateway, error)
	provider    assist.Provider
}

// Execute runs the CLI with args until completion or ctx cancellation.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return err
	}
	c := &cli{cfg: cfg, openGateway: server.OpenGateway}
	defer c.close()
	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           entrypoint.ServiceScrapctl,
		Short:         "Operate a ScrapKart marketplace store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["store"] == "none" {
				return nil
			}
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.Store.Backend, "store", c.cfg.Store.Backend, "persistence backend (memory, sqlite, postgres)")
	flags.StringVar(&c.cfg.Store.DBPath, "db-path", c.cfg.Store.DBPath, "SQLite database path")
	flags.StringVar(&c.cfg.Store.PostgresDSN, "postgres-dsn", c.cfg.Store.PostgresDSN, "PostgreSQL connection string")

	root.AddCommand(seedCmd(c), listingsCmd(c), addressesCmd(c), autofillCmd(c), tokenCmd(c))
	return root
}

func (c *cli) open(ctx context.Context) error {
	gateway, err := c.openGateway(ctx, c.cfg.Store)
	if err != nil {
		return err
	}
	notifier, err := server.NewNotifier(c.cfg.Telegram, log.Default())
	if err != nil {
		_ = gateway.Close()
		return err
	}
	provider := c.provider
	if provider == nil {
		provider, err = server.NewProvider(c.cfg.Gemini, nil)
		if err != nil {
			_ = gateway.Close()
			return err
		}
	}
	c.gateway = gateway
	c.services = server.NewServices(gateway, provider, notifier)
	return nil
}

func (c *cli) close() error {
	if c.gateway == nil {
		return nil
	}
	err := c.gateway.Close()
	c.gateway = nil
	return err
}

func userFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "user", "", "user id to act as")
}

func actingUser(id string) (requestctx.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return requestctx.User{}, errors.New("--user is required")
	}
	return requestctx.User{ID: id}, nil
}
