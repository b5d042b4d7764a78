package catalog

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

var listingFieldErrors = []struct {
	err   error
	field string
}{
	{listing.ErrEmptySellerID, "seller_id"},
	{listing.ErrEmptyTitle, "title"},
	{listing.ErrNoScrapTypes, "scrap_types"},
	{listing.ErrInvalidWeight, "weight"},
	{listing.ErrNegativePrice, "price"},
	{listing.ErrEmptyImage, "image_url"},
	{listing.ErrEmptyBuyerID, "buyer_id"},
}

// toDomainError maps storage and listing errors onto coded errors.
func toDomainError(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.WrapWithMetadata(apperrors.CodeNotFound, message, map[string]string{"Resource": "listing"}, err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.CodeListingConflict, message, err)
	case errors.Is(err, listing.ErrNotAvailable), errors.Is(err, listing.ErrSellerIsBuyer), errors.Is(err, ErrOwnListing):
		return apperrors.Wrap(apperrors.CodeListingNotPurchasable, message, err)
	case errors.Is(err, ErrRequesterMissing), errors.Is(err, ErrScopeRequiresUser):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, message, err)
	case errors.Is(err, ErrInvalidScope):
		return apperrors.WrapWithMetadata(apperrors.CodeValidation, message, map[string]string{"Field": "scope"}, err)
	case errors.Is(err, storage.ErrUnsupportedTransition):
		return apperrors.WrapWithMetadata(apperrors.CodeValidation, message, map[string]string{"Field": "status"}, err)
	}
	for _, fieldErr := range listingFieldErrors {
		if errors.Is(err, fieldErr.err) {
			return apperrors.WrapWithMetadata(apperrors.CodeValidation, message, map[string]string{"Field": fieldErr.field}, err)
		}
	}
	return apperrors.Wrap(apperrors.CodeIO, message, err)
}
