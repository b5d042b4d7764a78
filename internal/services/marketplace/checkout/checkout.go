// Package checkout drives the buyer's purchase wizard: address selection,
// order summary and payment.
package checkout

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// DefaultDeliveryFee is the flat fee added to every order.
var DefaultDeliveryFee = decimal.RequireFromString("40.00")

// Catalog is the listing surface checkout depends on.
type Catalog interface {
	CanBuy(ctx context.Context, listingID string, buyer requestctx.User) (listing.Listing, error)
	Purchase(ctx context.Context, listingID string, buyer requestctx.User) (listing.Listing, error)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithDeliveryFee overrides the flat delivery fee.
func WithDeliveryFee(fee decimal.Decimal) Option {
	return func(w *Workflow) {
		w.deliveryFee = fee
	}
}

// WithCurrency sets the currency used for formatted totals.
func WithCurrency(unit currency.Unit) Option {
	return func(w *Workflow) {
		w.currency = unit
	}
}

// WithLanguage sets the language used for formatted totals.
func WithLanguage(tag language.Tag) Option {
	return func(w *Workflow) {
		w.lang = tag
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithIDGenerator overrides session identifier generation.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(w *Workflow) {
		if generate != nil {
			w.newID = generate
		}
	}
}

// Workflow opens checkout sessions.
type Workflow struct {
	catalog     Catalog
	addresses   *AddressBook
	deliveryFee decimal.Decimal
	currency    currency.Unit
	lang        language.Tag
	now         func() time.Time
	newID       func() (string, error)
}

// NewWorkflow builds a workflow over the catalog and address book.
func NewWorkflow(catalog Catalog, addresses *AddressBook, opts ...Option) *Workflow {
	w := &Workflow{
		catalog:     catalog,
		addresses:   addresses,
		deliveryFee: DefaultDeliveryFee,
		currency:    currency.INR,
		lang:        language.MustParse("en-IN"),
		now:         time.Now,
		newID:       id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// DeliveryFee returns the flat delivery fee.
func (w *Workflow) DeliveryFee() decimal.Decimal {
	return w.deliveryFee
}

// Total returns price plus the delivery fee. Weight plays no part.
func (w *Workflow) Total(price decimal.Decimal) decimal.Decimal {
	return price.Add(w.deliveryFee)
}

// FormatAmount renders amount in the workflow currency and language.
func (w *Workflow) FormatAmount(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return message.NewPrinter(w.lang).Sprint(currency.Symbol(w.currency.Amount(value)))
}

// Open starts a session for buyer on a buy-eligible listing. The first saved
// address is selected; without any, the address form is required.
func (w *Workflow) Open(ctx context.Context, buyer requestctx.User, listingID string) (*Session, error) {
	if !buyer.Present() {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "checkout requires a buyer")
	}
	l, err := w.catalog.CanBuy(ctx, listingID, buyer)
	if err != nil {
		return nil, err
	}
	addresses, err := w.addresses.List(ctx, buyer)
	if err != nil {
		return nil, err
	}
	sessionID, err := w.newID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "generate checkout id", err)
	}

	s := &Session{
		ID:        sessionID,
		workflow:  w,
		buyer:     buyer,
		listing:   l,
		stage:     StageAddress,
		addresses: addresses,
		touched:   w.now(),
	}
	if len(addresses) > 0 {
		s.selected = addresses[0].ID
	}
	log.Printf("checkout opened checkout_id=%s listing_id=%s buyer_id=%s addresses=%d", s.ID, l.ID, buyer.ID, len(addresses))
	return s, nil
}
