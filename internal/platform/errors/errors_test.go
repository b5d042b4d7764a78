package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("purchase: %w", New(CodeNotFound, "listing not found"))
	if !stderrors.Is(err, Sentinel(CodeNotFound)) {
		t.Fatal("expected wrapped error to match NOT_FOUND")
	}
	if stderrors.Is(err, Sentinel(CodeValidation)) {
		t.Fatal("expected wrapped error not to match VALIDATION")
	}
	if !HasCode(err, CodeNotFound) {
		t.Fatal("HasCode should find NOT_FOUND")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeIO, "store image", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if got := err.Error(); got != "store image: disk full" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("GetCode(plain) = %s, want UNKNOWN", got)
	}
	if got := GetCode(fmt.Errorf("x: %w", New(CodeAIAnalysis, "bad json"))); got != CodeAIAnalysis {
		t.Fatalf("GetCode = %s, want AI_ANALYSIS", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: http.StatusOK},
		{err: New(CodeValidation, "title required"), want: http.StatusBadRequest},
		{err: New(CodeNotFound, "missing"), want: http.StatusNotFound},
		{err: New(CodeUnauthenticated, "login"), want: http.StatusUnauthorized},
		{err: New(CodeListingConflict, "sold"), want: http.StatusConflict},
		{err: New(CodeCheckoutPaymentFailed, "payment"), want: http.StatusPaymentRequired},
		{err: New(CodeAIGeneration, "bad"), want: http.StatusBadGateway},
		{err: New(CodeAIInvalidEstimate, "weight"), want: http.StatusBadRequest},
		{err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
