// Package storage defines persistence contracts for marketplace state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a listing is no longer in the state a write expected.
	ErrConflict = errors.New("record changed concurrently")
	// ErrUnsupportedTransition indicates a status change the gateway does not model.
	ErrUnsupportedTransition = errors.New("unsupported status transition")
	// ErrEmptyImage indicates an image upload carried no bytes.
	ErrEmptyImage = errors.New("image is empty")
)

// ListingStore persists listings.
type ListingStore interface {
	// ListListings returns every listing, newest created first.
	ListListings(ctx context.Context) ([]listing.Listing, error)
	GetListing(ctx context.Context, listingID string) (listing.Listing, error)
	// CreateListing assigns the identifier and creation time.
	CreateListing(ctx context.Context, input listing.CreateInput) (listing.Listing, error)
	// UpdateListingStatus atomically moves an available listing to sold.
	// A listing that is no longer available yields ErrConflict and is left untouched.
	UpdateListingStatus(ctx context.Context, listingID string, status listing.Status, buyerID string) (listing.Listing, error)
}

// AddressStore persists per-user delivery addresses.
type AddressStore interface {
	// ListAddresses returns the user's addresses in insertion order.
	ListAddresses(ctx context.Context, userID string) ([]address.Address, error)
	CreateAddress(ctx context.Context, userID string, input address.CreateInput) (address.Address, error)
}

// ImageStore converts uploaded bytes into retrievable references.
type ImageStore interface {
	StoreImage(ctx context.Context, image Image) (string, error)
	GetImage(ctx context.Context, ref string) (Image, error)
}

// Gateway is the full persistence surface the marketplace runs on.
type Gateway interface {
	ListingStore
	AddressStore
	ImageStore
	Close() error
}
