// Package address defines buyer delivery addresses.
package address

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/scrapkart/internal/platform/id"
)

var (
	// ErrEmptyUserID indicates the owning user ID is required.
	ErrEmptyUserID = errors.New("user id is required")
	// ErrEmptyName indicates the recipient name is required.
	ErrEmptyName = errors.New("name is required")
	// ErrEmptyPhone indicates a contact phone is required.
	ErrEmptyPhone = errors.New("phone is required")
	// ErrEmptyLine1 indicates the first address line is required.
	ErrEmptyLine1 = errors.New("address line 1 is required")
	// ErrEmptyCity indicates city is required.
	ErrEmptyCity = errors.New("city is required")
	// ErrEmptyState indicates state is required.
	ErrEmptyState = errors.New("state is required")
	// ErrEmptyPostalCode indicates postal code is required.
	ErrEmptyPostalCode = errors.New("postal code is required")
)

// Address is a saved delivery address. Addresses are append-only.
type Address struct {
	ID         string
	UserID     string
	Name       string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	CreatedAt  time.Time
}

// CreateInput contains form fields for a new address.
type CreateInput struct {
	Name       string
	Phone      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
}

// FieldFor names the form field a validation error refers to.
func FieldFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyName):
		return "name"
	case errors.Is(err, ErrEmptyPhone):
		return "phone"
	case errors.Is(err, ErrEmptyLine1):
		return "line1"
	case errors.Is(err, ErrEmptyCity):
		return "city"
	case errors.Is(err, ErrEmptyState):
		return "state"
	case errors.Is(err, ErrEmptyPostalCode):
		return "postal_code"
	default:
		return ""
	}
}

// NormalizeCreateInput trims and validates address input. Line2 is optional.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Line1 = strings.TrimSpace(input.Line1)
	input.Line2 = strings.TrimSpace(input.Line2)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.TrimSpace(input.State)
	input.PostalCode = strings.TrimSpace(input.PostalCode)

	switch {
	case input.Name == "":
		return CreateInput{}, ErrEmptyName
	case input.Phone == "":
		return CreateInput{}, ErrEmptyPhone
	case input.Line1 == "":
		return CreateInput{}, ErrEmptyLine1
	case input.City == "":
		return CreateInput{}, ErrEmptyCity
	case input.State == "":
		return CreateInput{}, ErrEmptyState
	case input.PostalCode == "":
		return CreateInput{}, ErrEmptyPostalCode
	}
	return input, nil
}

// Create constructs an address owned by userID.
func Create(userID string, input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Address, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Address{}, ErrEmptyUserID
	}
	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Address{}, err
	}

	addressID, err := idGenerator()
	if err != nil {
		return Address{}, fmt.Errorf("generate address id: %w", err)
	}

	return Address{
		ID:         addressID,
		UserID:     userID,
		Name:       normalized.Name,
		Phone:      normalized.Phone,
		Line1:      normalized.Line1,
		Line2:      normalized.Line2,
		City:       normalized.City,
		State:      normalized.State,
		PostalCode: normalized.PostalCode,
		CreatedAt:  now().UTC().Truncate(time.Millisecond),
	}, nil
}

// Lines renders the address in display order, skipping an empty second line.
func (a Address) Lines() []string {
	lines := []string{a.Name, a.Line1}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s - %s", a.City, a.State, a.PostalCode), a.Phone)
	return lines
}
