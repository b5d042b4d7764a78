// Package storagetest provides a behavioural contract suite shared by every
// marketplace gateway implementation.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
	"github.com/shopspring/decimal"
)

// Clock is a settable time source handed to gateways under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to value.
func (c *Clock) Set(value time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = value.UTC()
}

// Factory builds a fresh, empty gateway driven by clock.
type Factory func(t *testing.T, clock *Clock) storage.Gateway

// ListingInput returns a valid create input for sellerID.
func ListingInput(sellerID, title string) listing.CreateInput {
	return listing.CreateInput{
		SellerID:   sellerID,
		Title:      title,
		ScrapTypes: []string{"Cardboard"},
		WeightKg:   decimal.NewFromInt(5),
		Price:      decimal.RequireFromString("150.00"),
		ImageURL:   "/images/placeholder",
		Address:    "Kothrud, Pune",
	}
}

// AddressInput returns a valid address form named name.
func AddressInput(name string) address.CreateInput {
	return address.CreateInput{
		Name:       name,
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Pune",
		State:      "Maharashtra",
		PostalCode: "411001",
	}
}

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// Run executes the contract suite against gateways built by newGateway.
func Run(t *testing.T, newGateway Factory) {
	t.Helper()

	setup := func(t *testing.T) (storage.Gateway, *Clock) {
		t.Helper()
		clock := NewClock(epoch)
		gw := newGateway(t, clock)
		t.Cleanup(func() { _ = gw.Close() })
		return gw, clock
	}

	t.Run("empty list", func(t *testing.T) {
		gw, _ := setup(t)
		got, err := gw.ListListings(context.Background())
		if err != nil {
			t.Fatalf("ListListings() error = %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("ListListings() = %d listings, want 0", len(got))
		}
	})

	t.Run("create then list", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Cardboard boxes"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected generated id")
		}
		if created.Status != listing.StatusAvailable || created.BuyerID != "" || created.SoldAt != nil {
			t.Fatalf("created listing = %+v", created)
		}
		if !created.CreatedAt.Equal(epoch) {
			t.Fatalf("created at = %v, want %v", created.CreatedAt, epoch)
		}

		got, err := gw.ListListings(ctx)
		if err != nil {
			t.Fatalf("ListListings() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("ListListings() = %d listings, want 1", len(got))
		}
		l := got[0]
		if l.ID != created.ID || l.Status != listing.StatusAvailable {
			t.Fatalf("listed = %+v", l)
		}
		if !l.Price.Equal(decimal.RequireFromString("150.00")) || !l.WeightKg.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("price/weight = %s/%s", l.Price, l.WeightKg)
		}
		if len(l.ScrapTypes) != 1 || l.ScrapTypes[0] != "Cardboard" {
			t.Fatalf("scrap types = %v", l.ScrapTypes)
		}
		if l.Address != "Kothrud, Pune" {
			t.Fatalf("address = %q", l.Address)
		}
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		gw, _ := setup(t)
		input := ListingInput("seller-1", "")
		if _, err := gw.CreateListing(context.Background(), input); !errors.Is(err, listing.ErrEmptyTitle) {
			t.Fatalf("CreateListing() error = %v, want ErrEmptyTitle", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		gw, clock := setup(t)
		ctx := context.Background()
		offsets := []time.Duration{2 * time.Hour, 0, 3 * time.Hour, time.Hour}
		for i, offset := range offsets {
			clock.Set(epoch.Add(offset))
			if _, err := gw.CreateListing(ctx, ListingInput("seller-1", "lot "+string(rune('a'+i)))); err != nil {
				t.Fatalf("CreateListing() error = %v", err)
			}
		}
		got, err := gw.ListListings(ctx)
		if err != nil {
			t.Fatalf("ListListings() error = %v", err)
		}
		if len(got) != len(offsets) {
			t.Fatalf("ListListings() = %d listings", len(got))
		}
		for i := 1; i < len(got); i++ {
			if !got[i-1].CreatedAt.After(got[i].CreatedAt) {
				t.Fatalf("listings not strictly newest first at %d: %v then %v", i, got[i-1].CreatedAt, got[i].CreatedAt)
			}
		}
	})

	t.Run("get missing", func(t *testing.T) {
		gw, _ := setup(t)
		if _, err := gw.GetListing(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("GetListing() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update unknown id leaves collection unchanged", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Steel"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		if _, err := gw.UpdateListingStatus(ctx, "missing", listing.StatusSold, "buyer-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("UpdateListingStatus() error = %v, want ErrNotFound", err)
		}
		got, err := gw.ListListings(ctx)
		if err != nil {
			t.Fatalf("ListListings() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != created.ID || got[0].Status != listing.StatusAvailable || got[0].BuyerID != "" {
			t.Fatalf("collection mutated: %+v", got)
		}
	})

	t.Run("sell once", func(t *testing.T) {
		gw, clock := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Copper"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		soldAt := epoch.Add(time.Hour)
		clock.Set(soldAt)

		sold, err := gw.UpdateListingStatus(ctx, created.ID, listing.StatusSold, "buyer-1")
		if err != nil {
			t.Fatalf("UpdateListingStatus() error = %v", err)
		}
		if sold.Status != listing.StatusSold || sold.BuyerID != "buyer-1" || sold.SoldAt == nil || !sold.SoldAt.Equal(soldAt) {
			t.Fatalf("sold = %+v", sold)
		}
		if err := listing.Validate(sold); err != nil {
			t.Fatalf("Validate(sold) error = %v", err)
		}

		_, err = gw.UpdateListingStatus(ctx, created.ID, listing.StatusSold, "buyer-2")
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("second UpdateListingStatus() error = %v, want ErrConflict", err)
		}
		stored, err := gw.GetListing(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetListing() error = %v", err)
		}
		if stored.BuyerID != "buyer-1" {
			t.Fatalf("buyer = %q, want buyer-1", stored.BuyerID)
		}
	})

	t.Run("seller cannot buy own listing", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Plastic"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		if _, err := gw.UpdateListingStatus(ctx, created.ID, listing.StatusSold, "seller-1"); !errors.Is(err, listing.ErrSellerIsBuyer) {
			t.Fatalf("UpdateListingStatus() error = %v, want ErrSellerIsBuyer", err)
		}
	})

	t.Run("unsupported transition", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Glass"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		if _, err := gw.UpdateListingStatus(ctx, created.ID, listing.StatusCancelled, "buyer-1"); !errors.Is(err, storage.ErrUnsupportedTransition) {
			t.Fatalf("UpdateListingStatus() error = %v, want ErrUnsupportedTransition", err)
		}
	})

	t.Run("concurrent purchases have one winner", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Brass"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}

		const buyers = 8
		var wg sync.WaitGroup
		results := make([]error, buyers)
		for i := range buyers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = gw.UpdateListingStatus(ctx, created.ID, listing.StatusSold, "buyer-"+string(rune('a'+i)))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, storage.ErrConflict):
			default:
				t.Fatalf("unexpected purchase error: %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("successful purchases = %d, want 1", wins)
		}
	})

	t.Run("addresses", func(t *testing.T) {
		gw, clock := setup(t)
		ctx := context.Background()

		empty, err := gw.ListAddresses(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListAddresses() error = %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("ListAddresses() = %d, want 0", len(empty))
		}

		names := []string{"Home", "Office", "Warehouse"}
		for i, name := range names {
			// Insertion order must win even when timestamps collide.
			clock.Set(epoch.Add(time.Duration(len(names)-i) * time.Minute))
			if _, err := gw.CreateAddress(ctx, "user-1", AddressInput(name)); err != nil {
				t.Fatalf("CreateAddress() error = %v", err)
			}
		}
		if _, err := gw.CreateAddress(ctx, "user-2", AddressInput("Elsewhere")); err != nil {
			t.Fatalf("CreateAddress() error = %v", err)
		}

		got, err := gw.ListAddresses(ctx, "user-1")
		if err != nil {
			t.Fatalf("ListAddresses() error = %v", err)
		}
		if len(got) != len(names) {
			t.Fatalf("ListAddresses() = %d, want %d", len(got), len(names))
		}
		for i, addr := range got {
			if addr.Name != names[i] || addr.UserID != "user-1" || addr.ID == "" {
				t.Fatalf("address[%d] = %+v", i, addr)
			}
		}

		if _, err := gw.CreateAddress(ctx, "user-1", address.CreateInput{Name: "x"}); !errors.Is(err, address.ErrEmptyPhone) {
			t.Fatalf("CreateAddress(invalid) error = %v, want ErrEmptyPhone", err)
		}
	})

	t.Run("images", func(t *testing.T) {
		gw, _ := setup(t)
		ctx := context.Background()

		if _, err := gw.StoreImage(ctx, storage.Image{ContentType: "image/png"}); !errors.Is(err, storage.ErrEmptyImage) {
			t.Fatalf("StoreImage(empty) error = %v, want ErrEmptyImage", err)
		}

		img := storage.Image{ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nscrap")}
		ref, err := gw.StoreImage(ctx, img)
		if err != nil {
			t.Fatalf("StoreImage() error = %v", err)
		}
		again, err := gw.StoreImage(ctx, img)
		if err != nil {
			t.Fatalf("StoreImage() error = %v", err)
		}
		if ref == "" || ref != again {
			t.Fatalf("refs = %q, %q; want stable non-empty", ref, again)
		}

		got, err := gw.GetImage(ctx, ref)
		if err != nil {
			t.Fatalf("GetImage() error = %v", err)
		}
		if got.ContentType != "image/png" || string(got.Data) != string(img.Data) {
			t.Fatalf("GetImage() = %+v", got)
		}
		if _, err := gw.GetImage(ctx, "/images/unknown"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("GetImage(unknown) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("timestamps read back unchanged", func(t *testing.T) {
		gw, clock := setup(t)
		ctx := context.Background()
		clock.Set(epoch.Add(123456789 * time.Nanosecond))
		created, err := gw.CreateListing(ctx, ListingInput("seller-1", "Brass fittings"))
		if err != nil {
			t.Fatalf("CreateListing() error = %v", err)
		}
		clock.Set(epoch.Add(time.Hour + 987654321*time.Nanosecond))
		sold, err := gw.UpdateListingStatus(ctx, created.ID, listing.StatusSold, "buyer-1")
		if err != nil {
			t.Fatalf("UpdateListingStatus() error = %v", err)
		}
		stored, err := gw.GetListing(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetListing() error = %v", err)
		}
		if !stored.CreatedAt.Equal(created.CreatedAt) || !stored.CreatedAt.Equal(epoch.Add(123*time.Millisecond)) {
			t.Fatalf("created at = %v stored, %v returned", stored.CreatedAt, created.CreatedAt)
		}
		if stored.SoldAt == nil || !stored.SoldAt.Equal(*sold.SoldAt) {
			t.Fatalf("sold at = %v stored, %v returned", stored.SoldAt, sold.SoldAt)
		}

		addr, err := gw.CreateAddress(ctx, "buyer-1", AddressInput("Home"))
		if err != nil {
			t.Fatalf("CreateAddress() error = %v", err)
		}
		addresses, err := gw.ListAddresses(ctx, "buyer-1")
		if err != nil || len(addresses) != 1 {
			t.Fatalf("ListAddresses() = %v, %v", addresses, err)
		}
		if !addresses[0].CreatedAt.Equal(addr.CreatedAt) {
			t.Fatalf("address created at = %v stored, %v returned", addresses[0].CreatedAt, addr.CreatedAt)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		gw, _ := setup(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := gw.ListListings(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("ListListings() error = %v, want context.Canceled", err)
		}
	})
}
