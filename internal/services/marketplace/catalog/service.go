package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/platform/timeouts"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/notify"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

const tracerName = "github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"

// Store is the persistence the catalog needs.
type Store interface {
	storage.ListingStore
	storage.ImageStore
}

// Query selects a view of the catalog.
type Query struct {
	Scope    Scope
	UserID   string
	Location string
	// Filter is an optional AIP-160 expression over ListingFields.
	Filter string
}

// Service exposes listing operations with role checks and coded errors.
type Service struct {
	store    Store
	notifier notify.Notifier
	tracer   trace.Tracer
}

// NewService builds a catalog service. A nil notifier logs sales.
func NewService(store Store, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		tracer:   otel.Tracer(tracerName),
	}
}

// List returns the listings visible under q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]listing.Listing, error) {
	userID := strings.TrimSpace(q.UserID)
	role := q.Scope.Role()
	if role != RoleNone && userID == "" {
		return nil, toDomainError("list listings", ErrScopeRequiresUser)
	}
	filterExpr, err := ParseFilter(q.Filter, ListingFields)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeValidation, "list listings", map[string]string{"Field": "filter"}, err)
	}

	all, err := s.store.ListListings(ctx)
	if err != nil {
		return nil, toDomainError("list listings", err)
	}
	visible := FilterByLocation(FilterByRole(all, role, userID), q.Location)
	if filterExpr == nil {
		return visible, nil
	}

	out := make([]listing.Listing, 0, len(visible))
	for _, l := range visible {
		ok, err := Evaluate(filterExpr, ListingResolver(l))
		if err != nil {
			return nil, apperrors.WrapWithMetadata(apperrors.CodeValidation, "evaluate filter", map[string]string{"Field": "filter"}, err)
		}
		if ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get returns one listing.
func (s *Service) Get(ctx context.Context, listingID string) (listing.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return listing.Listing{}, apperrors.WithMetadata(apperrors.CodeValidation, "listing id is required", map[string]string{"Field": "listing_id"})
	}
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return listing.Listing{}, toDomainError("get listing", err)
	}
	return l, nil
}

// Create posts a new listing on behalf of seller.
func (s *Service) Create(ctx context.Context, seller requestctx.User, input listing.CreateInput) (listing.Listing, error) {
	if !seller.Present() {
		return listing.Listing{}, apperrors.New(apperrors.CodeUnauthenticated, "create listing requires a seller")
	}
	input.SellerID = seller.ID
	created, err := s.store.CreateListing(ctx, input)
	if err != nil {
		return listing.Listing{}, toDomainError("create listing", err)
	}
	log.Printf("listing created listing_id=%s seller_id=%s price=%s", created.ID, created.SellerID, created.Price.StringFixed(2))
	return created, nil
}

// CanBuy reports whether buyer may purchase listingID right now.
func (s *Service) CanBuy(ctx context.Context, listingID string, buyer requestctx.User) (listing.Listing, error) {
	l, err := s.Get(ctx, listingID)
	if err != nil {
		return listing.Listing{}, err
	}
	if err := CheckPurchasable(l, buyer.ID); err != nil {
		return l, toDomainError("check listing", err)
	}
	return l, nil
}

// Purchase re-checks eligibility and marks the listing sold to buyer. The
// seller is notified afterwards; notification failures are only logged.
func (s *Service) Purchase(ctx context.Context, listingID string, buyer requestctx.User) (listing.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Purchase", trace.WithAttributes(
		attribute.String("listing.id", listingID),
		attribute.String("buyer.id", buyer.ID),
	))
	defer span.End()

	if _, err := s.CanBuy(ctx, listingID, buyer); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return listing.Listing{}, err
	}
	sold, err := s.store.UpdateListingStatus(ctx, listingID, listing.StatusSold, buyer.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return listing.Listing{}, toDomainError("purchase listing", err)
	}
	log.Printf("listing purchased listing_id=%s buyer_id=%s seller_id=%s", sold.ID, buyer.ID, sold.SellerID)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Notification)
	defer cancel()
	if err := s.notifier.ListingSold(notifyCtx, notify.Sale{Listing: sold, Buyer: buyer}); err != nil {
		log.Printf("notify seller failed listing_id=%s seller_id=%s err=%v", sold.ID, sold.SellerID, err)
	}
	return sold, nil
}

// StoreImage stores an uploaded image and returns its reference.
func (s *Service) StoreImage(ctx context.Context, image storage.Image) (string, error) {
	ref, err := s.store.StoreImage(ctx, image)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "store image", err)
	}
	return ref, nil
}

// GetImage loads an image by reference.
func (s *Service) GetImage(ctx context.Context, ref string) (storage.Image, error) {
	img, err := s.store.GetImage(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Image{}, apperrors.WrapWithMetadata(apperrors.CodeNotFound, "get image", map[string]string{"Resource": "image"}, err)
		}
		return storage.Image{}, apperrors.Wrap(apperrors.CodeIO, "get image", err)
	}
	return img, nil
}
