package checkout

import (
	"context"
	"errors"
	"log"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// AddressBook reads and saves a buyer's delivery addresses.
type AddressBook struct {
	store storage.AddressStore
}

// NewAddressBook wraps an address store.
func NewAddressBook(store storage.AddressStore) *AddressBook {
	return &AddressBook{store: store}
}

// List returns the user's saved addresses in insertion order.
func (b *AddressBook) List(ctx context.Context, user requestctx.User) ([]address.Address, error) {
	if !user.Present() {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "list addresses requires a user")
	}
	addresses, err := b.store.ListAddresses(ctx, user.ID)
	if err != nil {
		return nil, addressError("list addresses", err)
	}
	return addresses, nil
}

// Create saves a new address for the user.
func (b *AddressBook) Create(ctx context.Context, user requestctx.User, input address.CreateInput) (address.Address, error) {
	if !user.Present() {
		return address.Address{}, apperrors.New(apperrors.CodeUnauthenticated, "create address requires a user")
	}
	created, err := b.store.CreateAddress(ctx, user.ID, input)
	if err != nil {
		return address.Address{}, addressError("create address", err)
	}
	log.Printf("address created address_id=%s user_id=%s", created.ID, created.UserID)
	return created, nil
}

func addressError(message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, address.ErrEmptyUserID) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, message, err)
	}
	if field := address.FieldFor(err); field != "" {
		return apperrors.WrapWithMetadata(apperrors.CodeValidation, message, map[string]string{"Field": field}, err)
	}
	return apperrors.Wrap(apperrors.CodeIO, message, err)
}
