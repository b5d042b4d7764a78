package checkout

import (
	"strings"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
)

// PaymentMethod is how the buyer settles an order.
type PaymentMethod string

const (
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
)

// ParsePaymentMethod normalizes raw; blank selects UPI.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); method {
	case "":
		return PaymentUPI, nil
	case PaymentUPI, PaymentCard:
		return method, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeValidation, "unsupported payment method "+string(method),
			map[string]string{"Field": "method"})
	}
}

// retryable reports whether a failed purchase may succeed on a later try.
// A listing that is sold or gone stays that way.
func retryable(err error) bool {
	return !apperrors.HasCode(err, apperrors.CodeListingNotPurchasable) &&
		!apperrors.HasCode(err, apperrors.CodeListingConflict)
}
