package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/auth"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/notify"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/memory"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/postgres"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/sqlite"
)

// Store backends accepted by StoreConfig.Backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StoreConfig selects and locates the persistence gateway.
type StoreConfig struct {
	Backend     string `env:"SCRAPKART_MARKETPLACE_STORE" envDefault:"sqlite"`
	DBPath      string `env:"SCRAPKART_MARKETPLACE_DB_PATH" envDefault:"data/marketplace.db"`
	PostgresDSN string `env:"SCRAPKART_MARKETPLACE_POSTGRES_DSN"`
	// Latency enables simulated delays on the memory backend.
	Latency bool `env:"SCRAPKART_MARKETPLACE_LATENCY"`
}

// Config holds everything the marketplace server needs.
type Config struct {
	Addr        string `env:"SCRAPKART_MARKETPLACE_ADDR" envDefault:":8080"`
	DeliveryFee string `env:"SCRAPKART_MARKETPLACE_DELIVERY_FEE" envDefault:"40.00"`
	Currency    string `env:"SCRAPKART_MARKETPLACE_CURRENCY" envDefault:"INR"`
	// Language is the BCP 47 tag used to format order totals.
	Language string `env:"SCRAPKART_MARKETPLACE_LANGUAGE" envDefault:"en-IN"`

	Store    StoreConfig
	Auth     auth.Config
	Gemini   assist.GeminiConfig
	Telegram notify.TelegramConfig
}

// OpenGateway opens the configured backend.
func OpenGateway(ctx context.Context, cfg StoreConfig) (storage.Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMemory:
		var opts []memory.Option
		if cfg.Latency {
			opts = append(opts, memory.WithLatency(memory.DefaultLatency()))
		}
		return memory.New(opts...), nil
	case "", BackendSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = filepath.Join("data", "marketplace.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open marketplace sqlite store: %w", err)
		}
		return store, nil
	case BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open marketplace postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewNotifier always logs sales and also posts them to Telegram when configured.
func NewNotifier(cfg notify.TelegramConfig, logger *log.Logger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.LogNotifier{Logger: logger}}
	if cfg.Enabled() {
		telegram, err := notify.NewTelegram(cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		notifiers = append(notifiers, telegram)
	}
	return notifiers, nil
}

// NewProvider returns the Gemini adapter, or a provider that refuses every
// call when no API key is configured.
func NewProvider(cfg assist.GeminiConfig, client *http.Client) (assist.Provider, error) {
	if !cfg.Enabled() {
		return assist.Unavailable{}, nil
	}
	return assist.NewGemini(cfg, client)
}

func parseMoney(deliveryFee, code string) (decimal.Decimal, currency.Unit, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(deliveryFee))
	if err != nil {
		return decimal.Decimal{}, currency.Unit{}, fmt.Errorf("parse delivery fee %q: %w", deliveryFee, err)
	}
	if fee.IsNegative() {
		return decimal.Decimal{}, currency.Unit{}, fmt.Errorf("delivery fee must not be negative")
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return decimal.Decimal{}, currency.Unit{}, fmt.Errorf("parse currency %q: %w", code, err)
	}
	return fee, unit, nil
}

func parseLanguage(raw string) (language.Tag, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.MustParse("en-IN"), nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Tag{}, fmt.Errorf("parse language %q: %w", raw, err)
	}
	return tag, nil
}
