package httpapi

import (
	"net/http"

	"github.com/louisbranch/scrapkart/internal/platform/httpx"
)

func (h *Handler) autofill(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	img, err := readImage(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	draft, err := h.assist.Autofill(r.Context(), img)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, draftResponse{
		Analysis:    analysisPayload(draft.Analysis),
		Price:       draft.Price.StringFixed(2),
		Title:       draft.Title,
		Description: draft.Description,
	})
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	img, err := readImage(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	analysis, err := h.assist.AnalyzeImage(r.Context(), img)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, analysisPayload(analysis))
}

func (h *Handler) enhance(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	img, err := readImage(w, r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	ref, err := h.assist.EnhanceImage(r.Context(), img)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, imageResponse{URL: ref})
}

func (h *Handler) suggestPrice(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req assistDetailsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	price, err := h.assist.SuggestPrice(r.Context(), req.ScrapType, req.WeightKg)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, priceResponse{Price: price.StringFixed(2)})
}

func (h *Handler) describe(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req assistDetailsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	desc, err := h.assist.GenerateDescription(r.Context(), req.ScrapType, req.Quality, req.WeightKg)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, descriptionResponse{Title: desc.Title, Description: desc.Description})
}
