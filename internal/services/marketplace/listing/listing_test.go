package listing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validInput() CreateInput {
	return CreateInput{
		SellerID:   "seller-1",
		Title:      "  Old copper wire ",
		ScrapTypes: []string{"Copper Wire"},
		WeightKg:   decimal.NewFromInt(5),
		Price:      decimal.RequireFromString("150.00"),
		ImageURL:   "data:image/png;base64,AA==",
	}
}

func TestNormalizeCreateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*CreateInput)
		wantErr error
	}{
		{name: "valid"},
		{name: "missing seller", mutate: func(in *CreateInput) { in.SellerID = " " }, wantErr: ErrEmptySellerID},
		{name: "missing title", mutate: func(in *CreateInput) { in.Title = "" }, wantErr: ErrEmptyTitle},
		{name: "blank scrap types", mutate: func(in *CreateInput) { in.ScrapTypes = []string{" ", ""} }, wantErr: ErrNoScrapTypes},
		{name: "zero weight", mutate: func(in *CreateInput) { in.WeightKg = decimal.Zero }, wantErr: ErrInvalidWeight},
		{name: "negative weight", mutate: func(in *CreateInput) { in.WeightKg = decimal.NewFromInt(-1) }, wantErr: ErrInvalidWeight},
		{name: "negative price", mutate: func(in *CreateInput) { in.Price = decimal.NewFromInt(-1) }, wantErr: ErrNegativePrice},
		{name: "free listing", mutate: func(in *CreateInput) { in.Price = decimal.Zero }},
		{name: "missing image", mutate: func(in *CreateInput) { in.ImageURL = "" }, wantErr: ErrEmptyImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validInput()
			if tt.mutate != nil {
				tt.mutate(&input)
			}
			_, err := NormalizeCreateInput(input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NormalizeCreateInput() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeCreateInputDefaultsAddress(t *testing.T) {
	t.Parallel()

	got, err := NormalizeCreateInput(validInput())
	if err != nil {
		t.Fatalf("NormalizeCreateInput() error = %v", err)
	}
	if got.Address != DefaultAddress {
		t.Fatalf("address = %q, want %q", got.Address, DefaultAddress)
	}
	if got.Title != "Old copper wire" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestNormalizeScrapTypesDedupes(t *testing.T) {
	t.Parallel()

	got := NormalizeScrapTypes([]string{"Cardboard", " cardboard ", "", "Copper Wire"})
	if len(got) != 2 || got[0] != "Cardboard" || got[1] != "Copper Wire" {
		t.Fatalf("NormalizeScrapTypes() = %v", got)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	l, err := Create(validInput(), func() time.Time { return now }, func() (string, error) { return "listing-1", nil })
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if l.ID != "listing-1" {
		t.Fatalf("id = %q", l.ID)
	}
	if l.Status != StatusAvailable {
		t.Fatalf("status = %q, want available", l.Status)
	}
	if l.BuyerID != "" || l.SoldAt != nil {
		t.Fatal("fresh listing must not carry buyer or sold time")
	}
	if !l.CreatedAt.Equal(now) || l.CreatedAt.Location() != time.UTC {
		t.Fatalf("created at = %v, want %v in UTC", l.CreatedAt, now)
	}
	if err := Validate(l); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestCreateIDGeneratorError(t *testing.T) {
	t.Parallel()

	_, err := Create(validInput(), nil, func() (string, error) { return "", errors.New("entropy") })
	if err == nil {
		t.Fatal("expected id generation error")
	}
}

func TestSell(t *testing.T) {
	t.Parallel()

	l, err := Create(validInput(), nil, func() (string, error) { return "listing-1", nil })
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if _, err := Sell(l, "", at); !errors.Is(err, ErrEmptyBuyerID) {
		t.Fatalf("Sell(blank buyer) error = %v", err)
	}
	if _, err := Sell(l, "seller-1", at); !errors.Is(err, ErrSellerIsBuyer) {
		t.Fatalf("Sell(seller) error = %v", err)
	}

	sold, err := Sell(l, "buyer-1", at)
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	if sold.Status != StatusSold || sold.BuyerID != "buyer-1" || sold.SoldAt == nil || !sold.SoldAt.Equal(at) {
		t.Fatalf("sold listing = %+v", sold)
	}
	if err := Validate(sold); err != nil {
		t.Fatalf("Validate(sold) error = %v", err)
	}
	if l.Status != StatusAvailable {
		t.Fatal("Sell must not mutate its input")
	}

	if _, err := Sell(sold, "buyer-2", at); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("second Sell() error = %v, want ErrNotAvailable", err)
	}
}

func TestValidateInvariants(t *testing.T) {
	t.Parallel()

	soldAt := time.Now().UTC()
	tests := []struct {
		name    string
		listing Listing
		wantErr bool
	}{
		{name: "available", listing: Listing{ID: "a", Status: StatusAvailable}},
		{name: "available with buyer", listing: Listing{ID: "a", Status: StatusAvailable, BuyerID: "b"}, wantErr: true},
		{name: "sold without buyer", listing: Listing{ID: "a", Status: StatusSold, SoldAt: &soldAt}, wantErr: true},
		{name: "sold without time", listing: Listing{ID: "a", Status: StatusSold, BuyerID: "b"}, wantErr: true},
		{name: "sold", listing: Listing{ID: "a", Status: StatusSold, BuyerID: "b", SoldAt: &soldAt}},
		{name: "completed", listing: Listing{ID: "a", Status: StatusCompleted, BuyerID: "b", SoldAt: &soldAt}},
		{name: "unknown status", listing: Listing{ID: "a", Status: "lost"}, wantErr: true},
		{name: "missing id", listing: Listing{Status: StatusAvailable}, wantErr: true},
		{name: "negative price", listing: Listing{ID: "a", Status: StatusAvailable, Price: decimal.NewFromInt(-1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tt.listing)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus(" Sold ")
	if err != nil || got != StatusSold {
		t.Fatalf("ParseStatus() = %q, %v", got, err)
	}
	if _, err := ParseStatus("lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ParseStatus(lost) error = %v", err)
	}
}
