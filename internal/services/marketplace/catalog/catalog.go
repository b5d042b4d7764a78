// Package catalog projects the listing collection into role-scoped views and
// owns the listing purchase transition.
package catalog

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

// Role selects which side of a listing a user is looking from.
type Role int

const (
	// RoleNone passes every listing through.
	RoleNone Role = iota
	// RoleSeller keeps listings the user posted.
	RoleSeller
	// RoleBuyer keeps listings the user bought.
	RoleBuyer
)

// Scope is the browse filter a user picks.
type Scope string

const (
	ScopeNone        Scope = ""
	ScopeMyListings  Scope = "my-listings"
	ScopeMyPurchases Scope = "my-purchases"
)

var (
	// ErrInvalidScope indicates an unknown scope value.
	ErrInvalidScope = errors.New("scope is invalid")
	// ErrScopeRequiresUser indicates a personal scope was requested anonymously.
	ErrScopeRequiresUser = errors.New("scope requires a signed-in user")
	// ErrRequesterMissing indicates nobody is signed in.
	ErrRequesterMissing = errors.New("sign in to buy")
	// ErrOwnListing indicates the requester posted the listing.
	ErrOwnListing = errors.New("cannot buy own listing")
)

// ParseScope converts a query parameter into a Scope.
func ParseScope(value string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(value))) {
	case ScopeNone, "none", "all":
		return ScopeNone, nil
	case ScopeMyListings:
		return ScopeMyListings, nil
	case ScopeMyPurchases:
		return ScopeMyPurchases, nil
	default:
		return ScopeNone, ErrInvalidScope
	}
}

// Role maps the scope onto the role filter.
func (s Scope) Role() Role {
	switch s {
	case ScopeMyListings:
		return RoleSeller
	case ScopeMyPurchases:
		return RoleBuyer
	default:
		return RoleNone
	}
}

// FilterByRole keeps the listings userID sees in role. RoleNone returns the
// input unchanged.
func FilterByRole(listings []listing.Listing, role Role, userID string) []listing.Listing {
	if role == RoleNone {
		return listings
	}
	out := make([]listing.Listing, 0, len(listings))
	for _, l := range listings {
		switch role {
		case RoleSeller:
			if l.SellerID == userID {
				out = append(out, l)
			}
		case RoleBuyer:
			if l.BuyerID != "" && l.BuyerID == userID {
				out = append(out, l)
			}
		}
	}
	return out
}

// FilterByLocation keeps listings whose address contains query, ignoring
// case. A blank query returns the input unchanged.
func FilterByLocation(listings []listing.Listing, query string) []listing.Listing {
	query = strings.TrimSpace(query)
	if query == "" {
		return listings
	}
	folder := cases.Fold()
	needle := folder.String(query)
	out := make([]listing.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(folder.String(l.Address), needle) {
			out = append(out, l)
		}
	}
	return out
}

// CheckPurchasable explains why requesterID cannot buy l, or returns nil.
// A blank requesterID means nobody is signed in.
func CheckPurchasable(l listing.Listing, requesterID string) error {
	requesterID = strings.TrimSpace(requesterID)
	switch {
	case requesterID == "":
		return ErrRequesterMissing
	case l.Status != listing.StatusAvailable:
		return listing.ErrNotAvailable
	case l.SellerID == requesterID:
		return ErrOwnListing
	default:
		return nil
	}
}

// CanBuy reports whether requesterID may buy l.
func CanBuy(l listing.Listing, requesterID string) bool {
	return CheckPurchasable(l, requesterID) == nil
}
