package checkout

import (
	"context"
	"log"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// Session is one buyer's checkout of one listing. It is safe for concurrent
// use; responses that arrive after Close are discarded.
type Session struct {
	ID string

	workflow *Workflow
	buyer    requestctx.User

	mu         sync.Mutex
	listing    listing.Listing
	stage      Stage
	addresses  []address.Address
	selected   string
	method     PaymentMethod
	processing bool
	lastErr    error
	closed     bool
	completed  bool
	touched    time.Time
}

// Summary is the order as shown before payment.
type Summary struct {
	Listing        listing.Listing
	Address        *address.Address
	Price          decimal.Decimal
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
	FormattedTotal string
}

// View is a point-in-time copy of the session state.
type View struct {
	ID                  string
	BuyerID             string
	Stage               Stage
	Addresses           []address.Address
	SelectedAddressID   string
	PaymentMethod       PaymentMethod
	AddressFormRequired bool
	Processing          bool
	Closed              bool
	Completed           bool
	LastError           error
	Summary             Summary
}

// Buyer returns the session owner.
func (s *Session) Buyer() requestctx.User {
	return s.buyer
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Total returns the order total.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Total(s.listing.Price)
}

// Summary returns the order summary for the selected address.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// AddAddress saves a new address for the buyer and selects it.
func (s *Session) AddAddress(ctx context.Context, input address.CreateInput) (address.Address, error) {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return address.Address{}, err
	}
	if s.stage != StageAddress {
		s.mu.Unlock()
		return address.Address{}, transitionError("add address", s.stage)
	}
	s.mu.Unlock()

	created, err := s.workflow.addresses.Create(ctx, s.buyer, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if err != nil {
			return address.Address{}, closedError()
		}
		return created, closedError()
	}
	s.touch()
	if err != nil {
		s.lastErr = err
		return address.Address{}, err
	}
	s.addresses = append(s.addresses, created)
	s.selected = created.ID
	s.lastErr = nil
	return created, nil
}

// SelectAddress selects one of the buyer's saved addresses.
func (s *Session) SelectAddress(addressID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return err
	}
	if s.stage != StageAddress {
		return transitionError("select address", s.stage)
	}
	idx := slices.IndexFunc(s.addresses, func(a address.Address) bool { return a.ID == addressID })
	if idx < 0 {
		return apperrors.WithMetadata(apperrors.CodeNotFound, "address not found", map[string]string{"Resource": "address"})
	}
	s.selected = addressID
	s.lastErr = nil
	s.touch()
	return nil
}

// Next moves one stage forward. Leaving the address stage requires a
// selected address.
func (s *Session) Next() (Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return s.stage, err
	}
	if s.stage == StageAddress && s.selected == "" {
		return s.stage, apperrors.New(apperrors.CodeCheckoutAddressRequired, "select a delivery address")
	}
	next, ok := s.stage.next()
	if !ok {
		return s.stage, transitionError("next", s.stage)
	}
	s.stage = next
	s.lastErr = nil
	s.touch()
	return s.stage, nil
}

// Back moves one stage backward.
func (s *Session) Back() (Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(); err != nil {
		return s.stage, err
	}
	previous, ok := s.stage.previous()
	if !ok {
		return s.stage, transitionError("back", s.stage)
	}
	s.stage = previous
	s.lastErr = nil
	s.touch()
	return s.stage, nil
}

// Pay finalizes the purchase with method. On success the session closes; on
// failure the stage and selected address are kept so the buyer can retry.
func (s *Session) Pay(ctx context.Context, method PaymentMethod) (listing.Listing, error) {
	method, err := ParsePaymentMethod(string(method))
	if err != nil {
		return listing.Listing{}, err
	}
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return listing.Listing{}, err
	}
	if s.stage != StagePayment {
		s.mu.Unlock()
		return listing.Listing{}, transitionError("pay", s.stage)
	}
	s.processing = true
	s.method = method
	s.lastErr = nil
	listingID := s.listing.ID
	total := s.workflow.Total(s.listing.Price)
	s.mu.Unlock()

	sold, err := s.workflow.catalog.Purchase(ctx, listingID, s.buyer)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	s.touch()
	if err != nil {
		payErr := apperrors.WrapWithMetadata(apperrors.CodeCheckoutPaymentFailed, "payment failed", map[string]string{
			"Reason":    string(apperrors.GetCode(err)),
			"Method":    string(method),
			"Retryable": strconv.FormatBool(retryable(err)),
		}, err)
		s.lastErr = payErr
		log.Printf("checkout payment failed checkout_id=%s listing_id=%s buyer_id=%s method=%s err=%v", s.ID, listingID, s.buyer.ID, method, err)
		return listing.Listing{}, payErr
	}
	s.listing = sold
	s.completed = true
	s.closed = true
	log.Printf("checkout completed checkout_id=%s listing_id=%s buyer_id=%s method=%s total=%s", s.ID, listingID, s.buyer.ID, method, total.StringFixed(2))
	return sold, nil
}

// Close discards the session. Closing is refused while payment is in
// flight and is a no-op once closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if s.processing {
		return processingError()
	}
	s.closed = true
	log.Printf("checkout cancelled checkout_id=%s stage=%s", s.ID, s.stage)
	return nil
}

// Done reports whether the session is closed or completed.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched, s.processing
}

func (s *Session) touch() {
	s.touched = s.workflow.now()
}

func (s *Session) guardLocked() error {
	if s.closed {
		return closedError()
	}
	if s.processing {
		return processingError()
	}
	return nil
}

func (s *Session) selectedLocked() *address.Address {
	for i := range s.addresses {
		if s.addresses[i].ID == s.selected {
			a := s.addresses[i]
			return &a
		}
	}
	return nil
}

func (s *Session) summaryLocked() Summary {
	total := s.workflow.Total(s.listing.Price)
	return Summary{
		Listing:        s.listing,
		Address:        s.selectedLocked(),
		Price:          s.listing.Price,
		DeliveryFee:    s.workflow.DeliveryFee(),
		Total:          total,
		FormattedTotal: s.workflow.FormatAmount(total),
	}
}

func (s *Session) viewLocked() View {
	return View{
		ID:                  s.ID,
		BuyerID:             s.buyer.ID,
		Stage:               s.stage,
		Addresses:           slices.Clone(s.addresses),
		SelectedAddressID:   s.selected,
		PaymentMethod:       s.method,
		AddressFormRequired: len(s.addresses) == 0,
		Processing:          s.processing,
		Closed:              s.closed,
		Completed:           s.completed,
		LastError:           s.lastErr,
		Summary:             s.summaryLocked(),
	}
}

func closedError() error {
	return apperrors.New(apperrors.CodeCheckoutClosed, "checkout is closed")
}

func processingError() error {
	return apperrors.New(apperrors.CodeCheckoutProcessing, "payment in progress")
}

func transitionError(action string, from Stage) error {
	return apperrors.WithMetadata(apperrors.CodeCheckoutInvalidTransition, action+" not allowed from "+from.String(),
		map[string]string{"Stage": from.String()})
}
