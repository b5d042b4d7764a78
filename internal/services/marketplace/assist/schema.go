package assist

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Analysis is the provider's reading of a scrap photo.
type Analysis struct {
	ScrapType       string  `json:"scrapType"`
	Quality         string  `json:"quality"`
	EstimatedWeight float64 `json:"estimatedWeight"`
}

// Description is generated listing copy.
type Description struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var analysisSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"scrapType", "quality", "estimatedWeight"},
	Properties: map[string]*jsonschema.Schema{
		"scrapType":       {Type: "string"},
		"quality":         {Type: "string"},
		"estimatedWeight": {Type: "number", Description: "A visual estimate of the weight in kilograms."},
	},
}

var descriptionSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"title", "description"},
	Properties: map[string]*jsonschema.Schema{
		"title":       {Type: "string"},
		"description": {Type: "string"},
	},
}

var (
	resolvedAnalysis    = mustResolve(analysisSchema)
	resolvedDescription = mustResolve(descriptionSchema)
)

func mustResolve(schema *jsonschema.Schema) *jsonschema.Resolved {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("resolve schema: %v", err))
	}
	return resolved
}

// requireText rejects response fields that are blank after trimming.
func requireText(fields map[string]string) error {
	var blank []string
	for name, value := range fields {
		if value == "" {
			blank = append(blank, name)
		}
	}
	if len(blank) == 0 {
		return nil
	}
	slices.Sort(blank)
	return fmt.Errorf("validate response: blank %s", strings.Join(blank, ", "))
}

// decodeStrict parses text as JSON, validates it against schema and decodes
// it into target.
func decodeStrict(text string, schema *jsonschema.Resolved, target any) error {
	raw := []byte(strings.TrimSpace(text))
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
