package notify

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/shopspring/decimal"
)

func testSale() Sale {
	return Sale{
		Listing: listing.Listing{
			ID:       "listing-1",
			SellerID: "seller-1",
			Title:    "Copper wire",
			Price:    decimal.RequireFromString("200"),
			WeightKg: decimal.RequireFromString("2.5"),
			Address:  "Pune, Maharashtra",
		},
		Buyer: requestctx.User{ID: "buyer-1", DisplayName: "Ravi"},
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	msg := Message(testSale())
	for _, want := range []string{"Sold: Copper wire", "Price: 200.00", "Weight: 2.5 kg", "Buyer: Ravi", "Pickup: Pune, Maharashtra"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q: %q", want, msg)
		}
	}

	sale := testSale()
	sale.Buyer.DisplayName = ""
	if !strings.Contains(Message(sale), "Buyer: buyer-1") {
		t.Fatal("expected buyer id fallback")
	}
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := LogNotifier{Logger: log.New(&buf, "", 0)}
	if err := n.ListingSold(context.Background(), testSale()); err != nil {
		t.Fatalf("ListingSold() error = %v", err)
	}
	for _, marker := range []string{"listing_id=listing-1", "seller_id=seller-1", "buyer_id=buyer-1", "price=200.00"} {
		if !strings.Contains(buf.String(), marker) {
			t.Fatalf("log missing %q: %q", marker, buf.String())
		}
	}
}

type notifierFunc func(context.Context, Sale) error

func (f notifierFunc) ListingSold(ctx context.Context, sale Sale) error { return f(ctx, sale) }

func TestMultiContinuesPastFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	m := Multi{
		notifierFunc(func(context.Context, Sale) error { calls++; return boom }),
		nil,
		notifierFunc(func(context.Context, Sale) error { calls++; return nil }),
	}
	err := m.ListingSold(context.Background(), testSale())
	if !errors.Is(err, boom) {
		t.Fatalf("ListingSold() error = %v, want boom", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestNewTelegramValidatesConfig(t *testing.T) {
	t.Parallel()

	if (TelegramConfig{}).Enabled() {
		t.Fatal("empty config should be disabled")
	}
	if _, err := NewTelegram(TelegramConfig{ChatID: 1}, nil); err == nil {
		t.Fatal("expected token error")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "t"}, nil); err == nil {
		t.Fatal("expected chat id error")
	}
}

func TestTelegramSendsMessage(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		sent []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Scrap","username":"scrap_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			mu.Lock()
			sent = append(sent, r.FormValue("chat_id")+"|"+r.FormValue("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	n, err := NewTelegram(TelegramConfig{
		Token:    "token",
		ChatID:   42,
		Endpoint: server.URL + "/bot%s/%s",
	}, server.Client())
	if err != nil {
		t.Fatalf("NewTelegram() error = %v", err)
	}
	if err := n.ListingSold(context.Background(), testSale()); err != nil {
		t.Fatalf("ListingSold() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sent))
	}
	if !strings.HasPrefix(sent[0], "42|Sold: Copper wire") {
		t.Fatalf("sent = %q", sent[0])
	}
}

func TestTelegramHonorsDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Scrap","username":"scrap_bot"}}`))
			return
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	n, err := NewTelegram(TelegramConfig{Token: "token", ChatID: 42, Endpoint: server.URL + "/bot%s/%s"}, server.Client())
	if err != nil {
		t.Fatalf("NewTelegram() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = n.ListingSold(ctx, testSale())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ListingSold() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("ListingSold() took %s, want it bounded by the context", elapsed)
	}
}

func TestTelegramRejectsBadToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := NewTelegram(TelegramConfig{Token: "bad", ChatID: 1, Endpoint: server.URL + "/bot%s/%s"}, server.Client())
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
}
