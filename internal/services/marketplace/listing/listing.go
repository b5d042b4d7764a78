// Package listing defines the scrap listing entity and its lifecycle.
package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/shopspring/decimal"
)

// DefaultAddress is used when a seller leaves the pickup address blank.
const DefaultAddress = "Pune, Maharashtra"

// Status represents listing lifecycle state.
type Status string

const (
	// StatusAvailable is the state of every freshly created listing.
	StatusAvailable Status = "available"
	// StatusSold is reached exactly once, by a successful purchase.
	StatusSold Status = "sold"
	// StatusCompleted marks a sold listing that was picked up.
	StatusCompleted Status = "completed"
	// StatusCancelled marks a sold listing whose order was called off.
	StatusCancelled Status = "cancelled"
)

var (
	// ErrEmptySellerID indicates seller user ID is required.
	ErrEmptySellerID = errors.New("seller id is required")
	// ErrEmptyTitle indicates listing title is required.
	ErrEmptyTitle = errors.New("title is required")
	// ErrNoScrapTypes indicates at least one scrap type is required.
	ErrNoScrapTypes = errors.New("at least one scrap type is required")
	// ErrInvalidWeight indicates weight must be positive.
	ErrInvalidWeight = errors.New("weight must be greater than zero")
	// ErrNegativePrice indicates price must not be negative.
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrEmptyImage indicates a primary image reference is required.
	ErrEmptyImage = errors.New("image is required")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("status is invalid")
	// ErrEmptyBuyerID indicates buyer user ID is required for a sale.
	ErrEmptyBuyerID = errors.New("buyer id is required")
	// ErrNotAvailable indicates the listing has already left the available state.
	ErrNotAvailable = errors.New("listing is not available")
	// ErrSellerIsBuyer indicates a seller tried to buy their own listing.
	ErrSellerIsBuyer = errors.New("seller cannot buy own listing")
)

// Listing is one seller's posted scrap lot.
type Listing struct {
	ID               string
	SellerID         string
	BuyerID          string
	Title            string
	Description      string
	ScrapTypes       []string
	WeightKg         decimal.Decimal
	Price            decimal.Decimal
	ImageURL         string
	EnhancedImageURL string
	Address          string
	Status           Status
	CreatedAt        time.Time
	SoldAt           *time.Time
}

// CreateInput contains seller-provided fields needed to create a listing.
type CreateInput struct {
	SellerID         string
	Title            string
	Description      string
	ScrapTypes       []string
	WeightKg         decimal.Decimal
	Price            decimal.Decimal
	ImageURL         string
	EnhancedImageURL string
	Address          string
}

// ParseStatus converts a stored or user-supplied status label.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return status, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// NormalizeCreateInput trims and validates listing create input.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.SellerID = strings.TrimSpace(input.SellerID)
	if input.SellerID == "" {
		return CreateInput{}, ErrEmptySellerID
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateInput{}, ErrEmptyTitle
	}
	input.Description = strings.TrimSpace(input.Description)

	input.ScrapTypes = NormalizeScrapTypes(input.ScrapTypes)
	if len(input.ScrapTypes) == 0 {
		return CreateInput{}, ErrNoScrapTypes
	}

	if !input.WeightKg.IsPositive() {
		return CreateInput{}, ErrInvalidWeight
	}
	if input.Price.IsNegative() {
		return CreateInput{}, ErrNegativePrice
	}

	input.ImageURL = strings.TrimSpace(input.ImageURL)
	if input.ImageURL == "" {
		return CreateInput{}, ErrEmptyImage
	}
	input.EnhancedImageURL = strings.TrimSpace(input.EnhancedImageURL)

	input.Address = strings.TrimSpace(input.Address)
	if input.Address == "" {
		input.Address = DefaultAddress
	}
	return input, nil
}

// NormalizeScrapTypes trims labels and drops blanks and case-insensitive
// duplicates, keeping first-seen order.
func NormalizeScrapTypes(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

// Create constructs a normalized available listing with a generated identifier.
// Timestamps carry millisecond precision, matching what gateways persist.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Listing, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Listing{}, err
	}

	listingID, err := idGenerator()
	if err != nil {
		return Listing{}, fmt.Errorf("generate listing id: %w", err)
	}

	return Listing{
		ID:               listingID,
		SellerID:         normalized.SellerID,
		Title:            normalized.Title,
		Description:      normalized.Description,
		ScrapTypes:       normalized.ScrapTypes,
		WeightKg:         normalized.WeightKg,
		Price:            normalized.Price,
		ImageURL:         normalized.ImageURL,
		EnhancedImageURL: normalized.EnhancedImageURL,
		Address:          normalized.Address,
		Status:           StatusAvailable,
		CreatedAt:        now().UTC().Truncate(time.Millisecond),
	}, nil
}

// Sell applies the one-time Available to Sold transition.
func Sell(l Listing, buyerID string, at time.Time) (Listing, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return Listing{}, ErrEmptyBuyerID
	}
	if l.Status != StatusAvailable {
		return Listing{}, ErrNotAvailable
	}
	if l.SellerID == buyerID {
		return Listing{}, ErrSellerIsBuyer
	}
	soldAt := at.UTC().Truncate(time.Millisecond)
	l.Status = StatusSold
	l.BuyerID = buyerID
	l.SoldAt = &soldAt
	return l, nil
}

// Validate checks the invariants every stored listing must satisfy.
func Validate(l Listing) error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("listing id is required")
	}
	if !l.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, l.Status)
	}
	if l.WeightKg.IsNegative() {
		return ErrInvalidWeight
	}
	if l.Price.IsNegative() {
		return ErrNegativePrice
	}
	hasBuyer := strings.TrimSpace(l.BuyerID) != "" && l.SoldAt != nil
	if l.Status == StatusAvailable {
		if l.BuyerID != "" || l.SoldAt != nil {
			return errors.New("available listing must not carry buyer or sold time")
		}
		return nil
	}
	if !hasBuyer {
		return fmt.Errorf("%s listing requires buyer and sold time", l.Status)
	}
	return nil
}
