package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, clock *storagetest.Clock) storage.Gateway {
		return New(WithClock(clock.Now))
	})
}

func TestStoreImageReturnsDataURL(t *testing.T) {
	t.Parallel()

	store := New()
	ref, err := store.StoreImage(context.Background(), storage.Image{ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}})
	if err != nil {
		t.Fatalf("StoreImage() error = %v", err)
	}
	if ref != "data:image/jpeg;base64,/9j/" {
		t.Fatalf("ref = %q", ref)
	}
}

func TestLatencyHonorsContext(t *testing.T) {
	t.Parallel()

	store := New(WithLatency(Latency{ListListings: time.Hour}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := store.ListListings(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ListListings() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("latency did not stop at context deadline")
	}
}

func TestDefaultLatencyIsPositive(t *testing.T) {
	t.Parallel()

	latency := DefaultLatency()
	for name, d := range map[string]time.Duration{
		"list":   latency.ListListings,
		"create": latency.CreateListing,
		"update": latency.UpdateStatus,
	} {
		if d <= 0 {
			t.Fatalf("%s latency = %v, want > 0", name, d)
		}
	}
}

func TestReturnedListingsAreCopies(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	created, err := store.CreateListing(ctx, storagetest.ListingInput("seller-1", "Paper"))
	if err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}
	created.ScrapTypes[0] = "mutated"

	got, err := store.GetListing(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if got.ScrapTypes[0] != "Cardboard" {
		t.Fatalf("stored scrap types changed through returned value: %v", got.ScrapTypes)
	}
}
