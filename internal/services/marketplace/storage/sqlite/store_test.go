package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/storagetest"
	"github.com/shopspring/decimal"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, clock *storagetest.Clock) storage.Gateway {
		store, err := Open(filepath.Join(t.TempDir(), "marketplace.db"), WithClock(clock.Now))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return store
	})
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "marketplace.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	input := storagetest.ListingInput("seller-1", "Aluminium cans")
	input.Price = decimal.RequireFromString("99.95")
	created, err := store.CreateListing(ctx, input)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetListing(ctx, created.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("99.95")) {
		t.Fatalf("price = %s, want 99.95", got.Price)
	}
}

func TestStoreImageIsContentAddressed(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "marketplace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ref, err := store.StoreImage(context.Background(), storage.Image{Data: []byte("\x89PNG\r\n\x1a\nabc")})
	if err != nil {
		t.Fatalf("store image: %v", err)
	}
	if !strings.HasPrefix(ref, storage.ImagePathPrefix) {
		t.Fatalf("ref = %q, want %s prefix", ref, storage.ImagePathPrefix)
	}
	img, err := store.GetImage(context.Background(), ref)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Fatalf("content type = %q, want sniffed image/png", img.ContentType)
	}
}

func TestGetListingRejectsCorruptRow(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "marketplace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, err = store.sqlDB.ExecContext(ctx,
		`INSERT INTO listings (id, seller_id, title, scrap_types, weight_kg, price, image_url, address, status, created_at)
		 VALUES ('bad-1', 'seller-1', 'Tin', '["Tin"]', '-3', '10.00', '/images/x', 'Pune', 'available', 0)`)
	if err != nil {
		t.Fatalf("insert row: %v", err)
	}
	if _, err := store.GetListing(ctx, "bad-1"); !errors.Is(err, listing.ErrInvalidWeight) {
		t.Fatalf("GetListing() error = %v, want ErrInvalidWeight", err)
	}
	if _, err := store.ListListings(ctx); !errors.Is(err, listing.ErrInvalidWeight) {
		t.Fatalf("ListListings() error = %v, want ErrInvalidWeight", err)
	}
}
