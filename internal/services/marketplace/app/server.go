// Package server wires the marketplace runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/louisbranch/scrapkart/internal/platform/httpx"
	"github.com/louisbranch/scrapkart/internal/platform/timeouts"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/api/httpapi"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/auth"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/checkout"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/notify"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

const tracerName = "github.com/louisbranch/scrapkart/internal/services/marketplace/app"

// Services bundles the marketplace domain services over one gateway.
type Services struct {
	Catalog   *catalog.Service
	Addresses *checkout.AddressBook
	Workflow  *checkout.Workflow
	Checkouts *checkout.Registry
	Assist    *assist.Service
}

// NewServices builds every domain service on top of gateway.
func NewServices(gateway storage.Gateway, provider assist.Provider, notifier notify.Notifier, opts ...checkout.Option) Services {
	catalogService := catalog.NewService(gateway, notifier)
	addresses := checkout.NewAddressBook(gateway)
	workflow := checkout.NewWorkflow(catalogService, addresses, opts...)
	return Services{
		Catalog:   catalogService,
		Addresses: addresses,
		Workflow:  workflow,
		Checkouts: checkout.NewRegistry(workflow, checkout.DefaultSessionTTL),
		Assist:    assist.NewService(provider, gateway),
	}
}

// Server hosts the marketplace HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	gateway    storage.Gateway
}

// New opens storage and the listener described by cfg.
func New(ctx context.Context, cfg Config) (*Server, error) {
	fee, unit, err := parseMoney(cfg.DeliveryFee, cfg.Currency)
	if err != nil {
		return nil, err
	}
	lang, err := parseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(cfg.Auth, nil)
	if err != nil {
		return nil, err
	}
	notifier, err := NewNotifier(cfg.Telegram, log.Default())
	if err != nil {
		return nil, err
	}
	provider, err := NewProvider(cfg.Gemini, nil)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	gateway, err := OpenGateway(ctx, cfg.Store)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	services := NewServices(gateway, provider, notifier,
		checkout.WithDeliveryFee(fee),
		checkout.WithCurrency(unit),
		checkout.WithLanguage(lang),
	)
	handler := httpapi.NewHandler(httpapi.Dependencies{
		Catalog:   services.Catalog,
		Addresses: services.Addresses,
		Checkouts: services.Checkouts,
		Assist:    services.Assist,
	})

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler: httpx.Chain(handler.Routes(),
				httpx.RequestID(),
				httpx.RecoverPanic(),
				httpx.RequestLogger(log.Default()),
				httpx.Trace(tracerName),
				auth.Middleware(verifier),
			),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		gateway: gateway,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a marketplace server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve answers HTTP requests until context cancellation, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("marketplace server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.gateway != nil {
		if err := s.gateway.Close(); err != nil {
			log.Printf("close marketplace store: %v", err)
		}
	}
}
