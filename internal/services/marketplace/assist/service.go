package assist

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/timeouts"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

const tracerName = "github.com/louisbranch/scrapkart/internal/services/marketplace/assist"

const (
	analyzePrompt = "Analyze this image of scrap material. Identify the primary material (e.g., 'Copper Wire', 'PET Bottles', 'Cardboard'). " +
		"Assess its quality on a scale of 'Poor', 'Fair', 'Good', or 'Excellent'. Provide a rough, visual estimate of its weight in kilograms. " +
		"Return ONLY a valid JSON object with keys 'scrapType' (string), 'quality' (string), and 'estimatedWeight' (number)."
	enhancePrompt = "Enhance this photo for a marketplace listing. Improve lighting, contrast, and sharpness to make the scrap material clear and appealing. " +
		"Crop slightly if needed to focus on the subject. Do not add or remove any objects."
	pricePrompt = "Based on current market data, what is the estimated price per kg for '%s' scrap? " +
		"Provide a single numerical value representing the price in your local currency."
	describePrompt = "Generate a concise and appealing marketplace listing for scrap material.\n" +
		"- Material: %s\n- Quality: %s\n- Estimated Weight: %s kg\n\n" +
		"Return ONLY a valid JSON object with a 'title' (short and descriptive) and a 'description' (a brief paragraph)."
)

// Draft is the autofill result used to prefill a listing form.
type Draft struct {
	Analysis    Analysis
	Price       decimal.Decimal
	Title       string
	Description string
}

// Service runs the assist calls against a provider.
type Service struct {
	provider Provider
	images   storage.ImageStore
	tracer   trace.Tracer
}

// NewService builds an assist service. When images is set, enhanced photos
// are stored and their reference returned; otherwise a data URL is returned.
func NewService(provider Provider, images storage.ImageStore) *Service {
	if provider == nil {
		provider = Unavailable{}
	}
	return &Service{
		provider: provider,
		images:   images,
		tracer:   otel.Tracer(tracerName),
	}
}

// AnalyzeImage identifies the material, quality and weight in a photo.
func (s *Service) AnalyzeImage(ctx context.Context, img storage.Image) (Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "assist.AnalyzeImage")
	defer span.End()

	img, err := img.Normalize()
	if err != nil {
		return Analysis{}, fail(span, apperrors.WrapWithMetadata(apperrors.CodeValidation, "analyze image", map[string]string{"Field": "image"}, err))
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.AIRequest)
	defer cancel()
	text, err := s.provider.GenerateText(callCtx, Request{Model: ModelAnalyze, Prompt: analyzePrompt, Image: &img, Schema: analysisSchema})
	if err != nil {
		return Analysis{}, fail(span, apperrors.Wrap(apperrors.CodeAIAnalysis, "analyze image", err))
	}
	var analysis Analysis
	if err := decodeStrict(text, resolvedAnalysis, &analysis); err != nil {
		log.Printf("assist analysis rejected err=%v", err)
		return Analysis{}, fail(span, apperrors.Wrap(apperrors.CodeAIAnalysis, "analyze image", err))
	}
	analysis.ScrapType = strings.TrimSpace(analysis.ScrapType)
	analysis.Quality = strings.TrimSpace(analysis.Quality)
	if err := requireText(map[string]string{"scrapType": analysis.ScrapType, "quality": analysis.Quality}); err != nil {
		log.Printf("assist analysis rejected err=%v", err)
		return Analysis{}, fail(span, apperrors.Wrap(apperrors.CodeAIAnalysis, "analyze image", err))
	}
	span.SetAttributes(
		attribute.String("scrap.type", analysis.ScrapType),
		attribute.Float64("scrap.weight_kg", analysis.EstimatedWeight),
	)
	return analysis, nil
}

// EnhanceImage returns a reference to an improved version of the photo.
func (s *Service) EnhanceImage(ctx context.Context, img storage.Image) (string, error) {
	ctx, span := s.tracer.Start(ctx, "assist.EnhanceImage")
	defer span.End()

	img, err := img.Normalize()
	if err != nil {
		return "", fail(span, apperrors.WrapWithMetadata(apperrors.CodeValidation, "enhance image", map[string]string{"Field": "image"}, err))
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.AIRequest)
	defer cancel()
	enhanced, err := s.provider.GenerateImage(callCtx, Request{Model: ModelEnhance, Prompt: enhancePrompt, Image: &img})
	if err != nil {
		return "", fail(span, apperrors.Wrap(apperrors.CodeAIEnhancement, "enhance image", err))
	}
	enhanced, err = enhanced.Normalize()
	if err != nil {
		return "", fail(span, apperrors.Wrap(apperrors.CodeAIEnhancement, "enhance image", err))
	}
	if s.images == nil {
		return storage.DataURL(enhanced), nil
	}
	ref, err := s.images.StoreImage(ctx, enhanced)
	if err != nil {
		return "", fail(span, apperrors.Wrap(apperrors.CodeIO, "store enhanced image", err))
	}
	return ref, nil
}

// SuggestPrice estimates a total price for weight kg of scrapType. A model
// answer without a usable number yields zero.
func (s *Service) SuggestPrice(ctx context.Context, scrapType string, weight decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "assist.SuggestPrice")
	defer span.End()

	scrapType = strings.TrimSpace(scrapType)
	if err := requireDetails(scrapType, weight); err != nil {
		return decimal.Zero, fail(span, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.AIRequest)
	defer cancel()
	text, err := s.provider.GenerateText(callCtx, Request{Model: ModelPrice, Prompt: fmt.Sprintf(pricePrompt, scrapType), Search: true})
	if err != nil {
		return decimal.Zero, fail(span, apperrors.Wrap(apperrors.CodeAIGeneration, "suggest price", err))
	}
	price := ExtractPrice(text, weight)
	if price.IsZero() {
		log.Printf("assist price fallback scrap_type=%q", scrapType)
	}
	return price, nil
}

// GenerateDescription writes a title and description for the listing.
func (s *Service) GenerateDescription(ctx context.Context, scrapType, quality string, weight decimal.Decimal) (Description, error) {
	ctx, span := s.tracer.Start(ctx, "assist.GenerateDescription")
	defer span.End()

	scrapType = strings.TrimSpace(scrapType)
	quality = strings.TrimSpace(quality)
	if err := requireDetails(scrapType, weight); err != nil {
		return Description{}, fail(span, err)
	}
	if quality == "" {
		return Description{}, fail(span, apperrors.WithMetadata(apperrors.CodeValidation, "quality is required", map[string]string{"Field": "quality"}))
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.AIRequest)
	defer cancel()
	prompt := fmt.Sprintf(describePrompt, scrapType, quality, weight.String())
	text, err := s.provider.GenerateText(callCtx, Request{Model: ModelDescribe, Prompt: prompt, Schema: descriptionSchema})
	if err != nil {
		return Description{}, fail(span, apperrors.Wrap(apperrors.CodeAIGeneration, "generate description", err))
	}
	var desc Description
	if err := decodeStrict(text, resolvedDescription, &desc); err != nil {
		log.Printf("assist description rejected err=%v", err)
		return Description{}, fail(span, apperrors.Wrap(apperrors.CodeAIGeneration, "generate description", err))
	}
	desc.Title = strings.TrimSpace(desc.Title)
	desc.Description = strings.TrimSpace(desc.Description)
	if err := requireText(map[string]string{"title": desc.Title, "description": desc.Description}); err != nil {
		log.Printf("assist description rejected err=%v", err)
		return Description{}, fail(span, apperrors.Wrap(apperrors.CodeAIGeneration, "generate description", err))
	}
	return desc, nil
}

// Autofill analyzes the photo, then prices and describes it concurrently.
// A non-positive weight estimate stops the pipeline before any further call.
func (s *Service) Autofill(ctx context.Context, img storage.Image) (Draft, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Autofill)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "assist.Autofill")
	defer span.End()

	analysis, err := s.AnalyzeImage(ctx, img)
	if err != nil {
		return Draft{}, fail(span, err)
	}
	if analysis.EstimatedWeight <= 0 {
		return Draft{}, fail(span, apperrors.WithMetadata(apperrors.CodeAIInvalidEstimate, "weight estimate must be positive",
			map[string]string{"ScrapType": analysis.ScrapType}))
	}
	weight := decimal.NewFromFloat(analysis.EstimatedWeight)

	var (
		price decimal.Decimal
		desc  Description
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		price, err = s.SuggestPrice(gctx, analysis.ScrapType, weight)
		return err
	})
	g.Go(func() error {
		var err error
		desc, err = s.GenerateDescription(gctx, analysis.ScrapType, analysis.Quality, weight)
		return err
	})
	if err := g.Wait(); err != nil {
		return Draft{}, fail(span, err)
	}

	log.Printf("assist autofill scrap_type=%q weight_kg=%s price=%s", analysis.ScrapType, weight.String(), price.StringFixed(2))
	return Draft{
		Analysis:    analysis,
		Price:       price,
		Title:       desc.Title,
		Description: desc.Description,
	}, nil
}

func requireDetails(scrapType string, weight decimal.Decimal) error {
	switch {
	case scrapType == "":
		return apperrors.WithMetadata(apperrors.CodeValidation, "scrap type is required", map[string]string{"Field": "scrap_type"})
	case !weight.IsPositive():
		return apperrors.WithMetadata(apperrors.CodeValidation, "weight must be positive", map[string]string{"Field": "weight"})
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}
