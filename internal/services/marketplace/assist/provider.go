// Package assist fills listing drafts from a photo using a generative AI
// provider: analysis, enhancement, price suggestion and description.
package assist

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// Models used for each call.
const (
	ModelAnalyze  = "gemini-2.5-flash"
	ModelEnhance  = "gemini-2.5-flash-image"
	ModelPrice    = "gemini-2.5-flash"
	ModelDescribe = "gemini-2.5-pro"
)

// ErrProviderUnavailable indicates no AI provider is configured.
var ErrProviderUnavailable = errors.New("ai provider is not configured")

// Request is one generation call.
type Request struct {
	Model  string
	Prompt string
	// Image is sent inline ahead of the prompt when set.
	Image *storage.Image
	// Schema asks for a JSON response shaped by the schema.
	Schema *jsonschema.Schema
	// Search grounds the answer with web search.
	Search bool
}

// Provider is the external generative AI collaborator. It returns raw model
// output; callers validate it.
type Provider interface {
	GenerateText(ctx context.Context, req Request) (string, error)
	GenerateImage(ctx context.Context, req Request) (storage.Image, error)
}

// Unavailable is the provider used when no credentials are configured.
type Unavailable struct{}

// GenerateText always fails.
func (Unavailable) GenerateText(context.Context, Request) (string, error) {
	return "", ErrProviderUnavailable
}

// GenerateImage always fails.
func (Unavailable) GenerateImage(context.Context, Request) (storage.Image, error) {
	return storage.Image{}, ErrProviderUnavailable
}
