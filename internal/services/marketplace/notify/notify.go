// Package notify tells sellers their listings sold.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// Sale describes one completed purchase.
type Sale struct {
	Listing listing.Listing
	Buyer   requestctx.User
}

// Notifier delivers sale notifications.
type Notifier interface {
	ListingSold(ctx context.Context, sale Sale) error
}

// Message renders the seller-facing sale text.
func Message(sale Sale) string {
	buyer := strings.TrimSpace(sale.Buyer.DisplayName)
	if buyer == "" {
		buyer = sale.Buyer.ID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Sold: %s\n", sale.Listing.Title)
	fmt.Fprintf(&b, "Price: %s\n", sale.Listing.Price.StringFixed(2))
	fmt.Fprintf(&b, "Weight: %s kg\n", sale.Listing.WeightKg.String())
	fmt.Fprintf(&b, "Buyer: %s\n", buyer)
	fmt.Fprintf(&b, "Pickup: %s", sale.Listing.Address)
	return b.String()
}

// LogNotifier writes sale notifications to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

// ListingSold logs the sale.
func (n LogNotifier) ListingSold(_ context.Context, sale Sale) error {
	logger := n.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("listing sold listing_id=%s seller_id=%s buyer_id=%s price=%s",
		sale.Listing.ID, sale.Listing.SellerID, sale.Buyer.ID, sale.Listing.Price.StringFixed(2))
	return nil
}

// Multi fans a sale out to every notifier and joins their errors.
type Multi []Notifier

// ListingSold notifies every member, continuing past failures.
func (m Multi) ListingSold(ctx context.Context, sale Sale) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.ListingSold(ctx, sale); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
