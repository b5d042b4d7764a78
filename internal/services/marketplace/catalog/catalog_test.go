package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

func sample() []listing.Listing {
	soldAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return []listing.Listing{
		{ID: "1", SellerID: "alice", Address: "Kothrud, PUNE", Status: listing.StatusAvailable},
		{ID: "2", SellerID: "bob", BuyerID: "alice", SoldAt: &soldAt, Address: "Andheri, Mumbai", Status: listing.StatusSold},
		{ID: "3", SellerID: "alice", BuyerID: "carol", SoldAt: &soldAt, Address: "Baner, Pune", Status: listing.StatusSold},
		{ID: "4", SellerID: "dave", Address: "Straße 5, München", Status: listing.StatusAvailable},
	}
}

func ids(listings []listing.Listing) string {
	out := ""
	for _, l := range listings {
		out += l.ID
	}
	return out
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{in: "", want: ScopeNone},
		{in: "none", want: ScopeNone},
		{in: "My-Listings", want: ScopeMyListings},
		{in: "my-purchases", want: ScopeMyPurchases},
		{in: "everything", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseScope(%q) error = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterByRole(t *testing.T) {
	t.Parallel()

	all := sample()
	tests := []struct {
		name   string
		role   Role
		userID string
		want   string
	}{
		{name: "none passes through", role: RoleNone, userID: "alice", want: "1234"},
		{name: "seller", role: RoleSeller, userID: "alice", want: "13"},
		{name: "buyer", role: RoleBuyer, userID: "alice", want: "2"},
		{name: "buyer without purchases", role: RoleBuyer, userID: "dave", want: ""},
		{name: "blank buyer never matches unsold", role: RoleBuyer, userID: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ids(FilterByRole(all, tt.role, tt.userID)); got != tt.want {
				t.Fatalf("FilterByRole() = %q, want %q", got, tt.want)
			}
		})
	}
	if ScopeMyListings.Role() != RoleSeller || ScopeMyPurchases.Role() != RoleBuyer || ScopeNone.Role() != RoleNone {
		t.Fatal("scope to role mapping changed")
	}
}

func TestFilterByLocation(t *testing.T) {
	t.Parallel()

	all := sample()
	tests := []struct {
		query string
		want  string
	}{
		{query: "", want: "1234"},
		{query: "   ", want: "1234"},
		{query: "pune", want: "13"},
		{query: "PUNE", want: "13"},
		{query: "mumbai", want: "2"},
		{query: "STRASSE", want: "4"},
		{query: "delhi", want: ""},
	}
	for _, tt := range tests {
		if got := ids(FilterByLocation(all, tt.query)); got != tt.want {
			t.Fatalf("FilterByLocation(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestFilterByLocationBlankIsIdentity(t *testing.T) {
	t.Parallel()

	all := sample()
	got := FilterByLocation(all, "")
	if len(got) != len(all) || &got[0] != &all[0] {
		t.Fatal("blank query must return the input slice unchanged")
	}
}

func TestCheckPurchasable(t *testing.T) {
	t.Parallel()

	statuses := []listing.Status{listing.StatusAvailable, listing.StatusSold, listing.StatusCompleted, listing.StatusCancelled}
	requesters := []string{"", "seller", "buyer"}
	for _, status := range statuses {
		for _, requester := range requesters {
			l := listing.Listing{ID: "x", SellerID: "seller", Status: status}
			want := status == listing.StatusAvailable && requester == "buyer"
			if got := CanBuy(l, requester); got != want {
				t.Fatalf("CanBuy(status=%s, requester=%q) = %v, want %v", status, requester, got, want)
			}
		}
	}

	l := listing.Listing{SellerID: "seller", Status: listing.StatusAvailable}
	if err := CheckPurchasable(l, ""); !errors.Is(err, ErrRequesterMissing) {
		t.Fatalf("anonymous error = %v", err)
	}
	if err := CheckPurchasable(l, "seller"); !errors.Is(err, ErrOwnListing) {
		t.Fatalf("own listing error = %v", err)
	}
	l.Status = listing.StatusSold
	if err := CheckPurchasable(l, "buyer"); !errors.Is(err, listing.ErrNotAvailable) {
		t.Fatalf("sold listing error = %v", err)
	}
}
