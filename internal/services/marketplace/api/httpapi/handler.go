// Package httpapi exposes the marketplace over JSON HTTP.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/httpx"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/checkout"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

// MaxImageBytes bounds raw image uploads.
const MaxImageBytes int64 = 10 << 20

// Dependencies are the services the handler serves.
type Dependencies struct {
	Catalog   *catalog.Service
	Addresses *checkout.AddressBook
	Checkouts *checkout.Registry
	Assist    *assist.Service
}

// Handler serves the marketplace routes.
type Handler struct {
	catalog   *catalog.Service
	addresses *checkout.AddressBook
	checkouts *checkout.Registry
	assist    *assist.Service
}

// NewHandler builds a handler from deps.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		catalog:   deps.Catalog,
		addresses: deps.Addresses,
		checkouts: deps.Checkouts,
		assist:    deps.Assist,
	}
}

// RegisterRoutes mounts every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("GET /v1/listings", h.listListings)
	mux.HandleFunc("POST /v1/listings", h.createListing)
	mux.HandleFunc("GET /v1/listings/{id}", h.getListing)

	mux.HandleFunc("POST /v1/images", h.uploadImage)
	mux.HandleFunc("GET /images/{ref}", h.serveImage)

	mux.HandleFunc("GET /v1/addresses", h.listAddresses)
	mux.HandleFunc("POST /v1/addresses", h.createAddress)

	mux.HandleFunc("POST /v1/checkout", h.openCheckout)
	mux.HandleFunc("GET /v1/checkout/{id}", h.getCheckout)
	mux.HandleFunc("DELETE /v1/checkout/{id}", h.cancelCheckout)
	mux.HandleFunc("POST /v1/checkout/{id}/addresses", h.addCheckoutAddress)
	mux.HandleFunc("POST /v1/checkout/{id}/select", h.selectCheckoutAddress)
	mux.HandleFunc("POST /v1/checkout/{id}/next", h.nextCheckoutStage)
	mux.HandleFunc("POST /v1/checkout/{id}/back", h.previousCheckoutStage)
	mux.HandleFunc("POST /v1/checkout/{id}/pay", h.payCheckout)

	mux.HandleFunc("POST /v1/assist/autofill", h.autofill)
	mux.HandleFunc("POST /v1/assist/analyze", h.analyze)
	mux.HandleFunc("POST /v1/assist/enhance", h.enhance)
	mux.HandleFunc("POST /v1/assist/price", h.suggestPrice)
	mux.HandleFunc("POST /v1/assist/describe", h.describe)
}

// Routes returns a mux with every route mounted.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser returns the signed-in caller or an UNAUTHENTICATED error.
func requireUser(r *http.Request) (requestctx.User, error) {
	user, ok := requestctx.UserFromContext(httpx.RequestContext(r))
	if !ok {
		return requestctx.User{}, apperrors.New(apperrors.CodeUnauthenticated, "sign in required")
	}
	return user, nil
}

// readImage reads a raw image upload.
func readImage(w http.ResponseWriter, r *http.Request) (storage.Image, error) {
	body := http.MaxBytesReader(w, r.Body, MaxImageBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return storage.Image{}, apperrors.WithMetadata(apperrors.CodeValidation, "image is too large", map[string]string{"Field": "image"})
		}
		return storage.Image{}, apperrors.Wrap(apperrors.CodeIO, "read image", err)
	}
	if len(data) == 0 {
		return storage.Image{}, apperrors.WithMetadata(apperrors.CodeValidation, "image is required", map[string]string{"Field": "image"})
	}
	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "application/octet-stream") {
		return storage.Image{}, apperrors.WithMetadata(apperrors.CodeValidation, "content type must be an image", map[string]string{"Field": "image"})
	}
	return storage.Image{ContentType: contentType, Data: data}, nil
}
