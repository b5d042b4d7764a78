package marketplace

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("marketplace", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if cfg.DeliveryFee != "40.00" || cfg.Currency != "INR" || cfg.Language != "en-IN" {
		t.Fatalf("expected 40.00 INR en-IN, got %s %s %s", cfg.DeliveryFee, cfg.Currency, cfg.Language)
	}
	if cfg.Auth.Issuer != "scrapkart" {
		t.Fatalf("expected default issuer, got %q", cfg.Auth.Issuer)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("SCRAPKART_MARKETPLACE_STORE", "memory")
	t.Setenv("SCRAPKART_MARKETPLACE_LATENCY", "true")
	t.Setenv("SCRAPKART_TELEGRAM_CHAT_ID", "42")

	fs := flag.NewFlagSet("marketplace", flag.ContinueOnError)
	args := []string{"-addr", "127.0.0.1:9000", "-delivery-fee", "55", "-language", "de"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if cfg.DeliveryFee != "55" {
		t.Fatalf("expected flag delivery fee, got %q", cfg.DeliveryFee)
	}
	if cfg.Language != "de" {
		t.Fatalf("expected flag language, got %q", cfg.Language)
	}
	if cfg.Store.Backend != "memory" || !cfg.Store.Latency {
		t.Fatalf("expected env store settings, got %+v", cfg.Store)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Fatalf("expected telegram chat id 42, got %d", cfg.Telegram.ChatID)
	}
}
