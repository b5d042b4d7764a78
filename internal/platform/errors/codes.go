// Package errors provides structured marketplace errors with stable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input and lookup errors
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeIO              Code = "IO"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// Listing errors
	CodeListingNotPurchasable Code = "LISTING_NOT_PURCHASABLE"
	CodeListingConflict       Code = "LISTING_CONFLICT"

	// Checkout errors
	CodeCheckoutAddressRequired   Code = "CHECKOUT_ADDRESS_REQUIRED"
	CodeCheckoutInvalidTransition Code = "CHECKOUT_INVALID_TRANSITION"
	CodeCheckoutClosed            Code = "CHECKOUT_CLOSED"
	CodeCheckoutProcessing        Code = "CHECKOUT_PROCESSING"
	CodeCheckoutPaymentFailed     Code = "CHECKOUT_PAYMENT_FAILED"

	// AI assist errors
	CodeAIAnalysis        Code = "AI_ANALYSIS"
	CodeAIEnhancement     Code = "AI_ENHANCEMENT"
	CodeAIGeneration      Code = "AI_GENERATION"
	CodeAIInvalidEstimate Code = "AI_INVALID_ESTIMATE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad input the caller should have prevented
	case CodeValidation,
		CodeCheckoutAddressRequired,
		CodeAIInvalidEstimate:
		return http.StatusBadRequest

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodeNotFound:
		return http.StatusNotFound

	// State doesn't allow the operation
	case CodeListingNotPurchasable,
		CodeListingConflict,
		CodeCheckoutInvalidTransition,
		CodeCheckoutClosed,
		CodeCheckoutProcessing:
		return http.StatusConflict

	case CodeCheckoutPaymentFailed:
		return http.StatusPaymentRequired

	// Upstream AI provider returned something unusable
	case CodeAIAnalysis,
		CodeAIEnhancement,
		CodeAIGeneration:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
