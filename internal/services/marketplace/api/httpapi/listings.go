package httpapi

import (
	"net/http"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/httpx"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/storage"
)

func (h *Handler) listListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	scope, err := catalog.ParseScope(query.Get("scope"))
	if err != nil {
		httpx.WriteError(w, r, apperrors.WrapWithMetadata(apperrors.CodeValidation, "parse scope", map[string]string{"Field": "scope"}, err))
		return
	}
	userID := requestctx.UserIDFromContext(r.Context())
	listings, err := h.catalog.List(r.Context(), catalog.Query{
		Scope:    scope,
		UserID:   userID,
		Location: query.Get("location"),
		Filter:   query.Get("filter"),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp := listListingsResponse{Listings: make([]listingResponse, 0, len(listings))}
	for _, l := range listings {
		resp.Listings = append(resp.Listings, listingPayload(l, userID))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listingPayload(l, requestctx.UserIDFromContext(r.Context())))
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	seller, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req createListingRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	created, err := h.catalog.Create(r.Context(), seller, req.input())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/listings/"+created.ID)
	_ = httpx.WriteJSON(w, http.StatusCreated, listingPayload(created, seller.ID))
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	img, err := readImage(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ref, err := h.catalog.StoreImage(r.Context(), img)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, imageResponse{URL: ref})
}

func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.catalog.GetImage(r.Context(), storage.ImagePathPrefix+r.PathValue("ref"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	// References are content addressed, so the bytes never change.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	addresses, err := h.addresses.List(r.Context(), user)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listAddressesResponse{Addresses: addressesPayload(addresses)})
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req addressRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	created, err := h.addresses.Create(r.Context(), user, req.input())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, addressPayload(created))
}
