// Package memory provides an in-process marketplace gateway with optional
// simulated network latency.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// Latency holds the simulated delay per gateway operation.
type Latency struct {
	ListListings  time.Duration
	GetListing    time.Duration
	CreateListing time.Duration
	UpdateStatus  time.Duration
	ListAddresses time.Duration
	CreateAddress time.Duration
	StoreImage    time.Duration
}

// DefaultLatency mirrors the delays of the hosted document store the
// marketplace was prototyped against.
func DefaultLatency() Latency {
	return Latency{
		ListListings:  500 * time.Millisecond,
		GetListing:    300 * time.Millisecond,
		CreateListing: time.Second,
		UpdateStatus:  1500 * time.Millisecond,
		ListAddresses: 300 * time.Millisecond,
		CreateAddress: 500 * time.Millisecond,
		StoreImage:    300 * time.Millisecond,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(s *Store) {
		if generate != nil {
			s.newID = generate
		}
	}
}

// WithLatency enables simulated latency.
func WithLatency(latency Latency) Option {
	return func(s *Store) {
		s.latency = latency
	}
}

// Store keeps marketplace state in memory. A single mutex serializes every
// read-then-write sequence.
type Store struct {
	mu        sync.Mutex
	listings  []listing.Listing
	addresses map[string][]address.Address
	now       func() time.Time
	newID     func() (string, error)
	latency   Latency
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		addresses: map[string][]address.Address{},
		now:       time.Now,
		newID:     id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneListing(l listing.Listing) listing.Listing {
	l.ScrapTypes = slices.Clone(l.ScrapTypes)
	if l.SoldAt != nil {
		soldAt := *l.SoldAt
		l.SoldAt = &soldAt
	}
	return l
}

// ListListings returns every listing, newest created first.
func (s *Store) ListListings(ctx context.Context) ([]listing.Listing, error) {
	if err := wait(ctx, s.latency.ListListings); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]listing.Listing, 0, len(s.listings))
	for i := len(s.listings) - 1; i >= 0; i-- {
		out = append(out, cloneListing(s.listings[i]))
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b listing.Listing) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// GetListing returns one listing by ID.
func (s *Store) GetListing(ctx context.Context, listingID string) (listing.Listing, error) {
	if err := wait(ctx, s.latency.GetListing); err != nil {
		return listing.Listing{}, err
	}
	listingID = strings.TrimSpace(listingID)
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(listingID)
	if idx < 0 {
		return listing.Listing{}, storage.ErrNotFound
	}
	return cloneListing(s.listings[idx]), nil
}

// CreateListing stores a new available listing.
func (s *Store) CreateListing(ctx context.Context, input listing.CreateInput) (listing.Listing, error) {
	if err := wait(ctx, s.latency.CreateListing); err != nil {
		return listing.Listing{}, err
	}
	created, err := listing.Create(input, s.now, s.newID)
	if err != nil {
		return listing.Listing{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(created.ID) >= 0 {
		return listing.Listing{}, fmt.Errorf("create listing: duplicate id %q", created.ID)
	}
	s.listings = append(s.listings, cloneListing(created))
	return created, nil
}

// UpdateListingStatus moves an available listing to sold.
func (s *Store) UpdateListingStatus(ctx context.Context, listingID string, status listing.Status, buyerID string) (listing.Listing, error) {
	if err := wait(ctx, s.latency.UpdateStatus); err != nil {
		return listing.Listing{}, err
	}
	if status != listing.StatusSold {
		return listing.Listing{}, fmt.Errorf("%w: %s", storage.ErrUnsupportedTransition, status)
	}
	listingID = strings.TrimSpace(listingID)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(listingID)
	if idx < 0 {
		return listing.Listing{}, storage.ErrNotFound
	}
	sold, err := listing.Sell(s.listings[idx], buyerID, s.now())
	if err != nil {
		if errors.Is(err, listing.ErrNotAvailable) {
			return listing.Listing{}, fmt.Errorf("%w: %w", storage.ErrConflict, err)
		}
		return listing.Listing{}, err
	}
	s.listings[idx] = sold
	return cloneListing(sold), nil
}

func (s *Store) indexOf(listingID string) int {
	for i := range s.listings {
		if s.listings[i].ID == listingID {
			return i
		}
	}
	return -1
}

// ListAddresses returns the user's addresses in insertion order.
func (s *Store) ListAddresses(ctx context.Context, userID string) ([]address.Address, error) {
	if err := wait(ctx, s.latency.ListAddresses); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.addresses[strings.TrimSpace(userID)]), nil
}

// CreateAddress appends an address to the user's collection.
func (s *Store) CreateAddress(ctx context.Context, userID string, input address.CreateInput) (address.Address, error) {
	if err := wait(ctx, s.latency.CreateAddress); err != nil {
		return address.Address{}, err
	}
	created, err := address.Create(userID, input, s.now, s.newID)
	if err != nil {
		return address.Address{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[created.UserID] = append(s.addresses[created.UserID], created)
	return created, nil
}

// StoreImage returns the image inlined as a data URL.
func (s *Store) StoreImage(ctx context.Context, image storage.Image) (string, error) {
	if err := wait(ctx, s.latency.StoreImage); err != nil {
		return "", err
	}
	normalized, err := image.Normalize()
	if err != nil {
		return "", err
	}
	return storage.DataURL(normalized), nil
}

// GetImage decodes a data URL reference produced by StoreImage.
func (s *Store) GetImage(ctx context.Context, ref string) (storage.Image, error) {
	if err := ctx.Err(); err != nil {
		return storage.Image{}, err
	}
	img, err := storage.ParseDataURL(ref)
	if err != nil {
		return storage.Image{}, storage.ErrNotFound
	}
	return img, nil
}

var _ storage.Gateway = (*Store)(nil)
