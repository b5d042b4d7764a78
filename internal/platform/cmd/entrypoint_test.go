package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Store   string `env:"CMD_TEST_STORE" envDefault:"memory"`
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_STORE", "sqlite")

	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "addr", cfg.Address, "address")
	if err := ParseArgs(fs, []string{"-addr", "flag:9002"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Address != "flag:9002" {
		t.Fatalf("address = %q, want flag:9002", cfg.Address)
	}
	if cfg.Store != "sqlite" {
		t.Fatalf("store = %q, want sqlite from env", cfg.Store)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceMarketplace, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestParseArgsDefaultsKeepEnvValues(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")

	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	fs := flag.NewFlagSet("defaults", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "addr", cfg.Address, "address")
	if err := ParseArgs(fs, nil); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Address != "env:9000" || cfg.Store != "memory" {
		t.Fatalf("cfg = %+v, want env address and default store", cfg)
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("SCRAPKART_OTEL_ENDPOINT", "")
	want := errors.New("boom")

	called := false
	err := RunWithTelemetry(context.Background(), ServiceScrapctl, func(context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected run function to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("run error = %v, want %v", err, want)
	}
}
