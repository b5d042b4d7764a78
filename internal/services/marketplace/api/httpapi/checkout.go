package httpapi

import (
	"net/http"

	"github.com/louisbranch/scrapkart/internal/platform/httpx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/checkout"
)

func (h *Handler) openCheckout(w http.ResponseWriter, r *http.Request) {
	buyer, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req openCheckoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	session, err := h.checkouts.Open(r.Context(), buyer, req.ListingID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/checkout/"+session.ID)
	_ = httpx.WriteJSON(w, http.StatusCreated, checkoutPayload(r, session.View()))
}

// session resolves the caller's checkout named in the path.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	buyer, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return nil, false
	}
	session, err := h.checkouts.Get(r.PathValue("id"), buyer)
	if err != nil {
		httpx.WriteError(w, r, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, checkoutPayload(r, session.View()))
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	buyer, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.checkouts.Cancel(r.PathValue("id"), buyer); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addressRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if _, err := session.AddAddress(r.Context(), req.input()); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, checkoutPayload(r, session.View()))
}

func (h *Handler) selectCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectAddressRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := session.SelectAddress(req.AddressID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, checkoutPayload(r, session.View()))
}

func (h *Handler) nextCheckoutStage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := session.Next(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, checkoutPayload(r, session.View()))
}

func (h *Handler) previousCheckoutStage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := session.Back(); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, checkoutPayload(r, session.View()))
}

func (h *Handler) payCheckout(w http.ResponseWriter, r *http.Request) {
	buyer, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	session, err := h.checkouts.Get(r.PathValue("id"), buyer)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	// The body is optional; without one the buyer pays by UPI.
	var req payRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	method, err := checkout.ParsePaymentMethod(req.Method)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	total := session.Total()
	sold, err := h.checkouts.Pay(r.Context(), session.ID, buyer, method)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, payResponse{
		Listing: listingPayload(sold, buyer.ID),
		Total:   total.StringFixed(2),
		Method:  string(method),
	})
}
