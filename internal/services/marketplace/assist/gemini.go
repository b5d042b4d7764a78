package assist

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// DefaultGeminiBaseURL is the public Generative Language API root.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey  string `env:"SCRAPKART_GEMINI_API_KEY"`
	BaseURL string `env:"SCRAPKART_GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
}

// Enabled reports whether an API key is configured.
func (c GeminiConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Gemini calls the generateContent endpoint of the Gemini API.
type Gemini struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGemini builds a Gemini provider. A nil client uses http.DefaultClient.
func NewGemini(cfg GeminiConfig, client *http.Client) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse gemini base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{apiKey: apiKey, baseURL: baseURL, client: client}, nil
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string             `json:"responseMimeType,omitempty"`
	ResponseJSONSchema *jsonschema.Schema `json:"responseJsonSchema,omitempty"`
	ResponseModalities []string           `json:"responseModalities,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools            []geminiTool            `json:"tools,omitempty"`
}

// GenerateText returns the concatenated text parts of the first candidate.
func (g *Gemini) GenerateText(ctx context.Context, req Request) (string, error) {
	parts, err := g.generate(ctx, req, false)
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, part := range parts {
		text.WriteString(part.Get("text").String())
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("gemini response missing text")
	}
	return text.String(), nil
}

// GenerateImage returns the first inline image of the first candidate.
func (g *Gemini) GenerateImage(ctx context.Context, req Request) (storage.Image, error) {
	parts, err := g.generate(ctx, req, true)
	if err != nil {
		return storage.Image{}, err
	}
	for _, part := range parts {
		inline := part.Get("inlineData")
		if !inline.Exists() {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(inline.Get("data").String())
		if err != nil {
			return storage.Image{}, fmt.Errorf("decode gemini image: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		return storage.Image{ContentType: inline.Get("mimeType").String(), Data: data}, nil
	}
	return storage.Image{}, fmt.Errorf("gemini response missing image")
}

func (g *Gemini) generate(ctx context.Context, req Request, wantImage bool) ([]gjson.Result, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	content := geminiContent{}
	if req.Image != nil {
		content.Parts = append(content.Parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Image.ContentType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}
	content.Parts = append(content.Parts, geminiPart{Text: req.Prompt})
	body := geminiRequest{Contents: []geminiContent{content}}
	switch {
	case wantImage:
		body.GenerationConfig = &geminiGenerationConfig{ResponseModalities: []string{"IMAGE"}}
	case req.Schema != nil:
		body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json", ResponseJSONSchema: req.Schema}
	}
	if req.Search {
		body.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}
	endpoint := g.baseURL + "/models/" + url.PathEscape(model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The key travels only in this header and never appears in errors.
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read gemini error body: %w", err)
		}
		message := gjson.GetBytes(errBody, "error.message").String()
		if message == "" {
			message = strings.TrimSpace(string(errBody))
		}
		return nil, fmt.Errorf("gemini request status %d: %s", res.StatusCode, message)
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("gemini response is not valid json")
	}
	if reason := gjson.GetBytes(respBody, "promptFeedback.blockReason").String(); reason != "" {
		return nil, fmt.Errorf("gemini blocked prompt: %s", reason)
	}
	parts := gjson.GetBytes(respBody, "candidates.0.content.parts")
	if !parts.IsArray() || len(parts.Array()) == 0 {
		return nil, fmt.Errorf("gemini response missing candidates")
	}
	return parts.Array(), nil
}

var _ Provider = (*Gemini)(nil)
