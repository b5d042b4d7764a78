package httpapi

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/louisbranch/scrapkart/internal/platform/httpx"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/address"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/assist"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/catalog"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/checkout"
	"github.com/louisbranch/scrapkart/internal/services/marketplace/listing"
)

type listingResponse struct {
	ID               string     `json:"id"`
	SellerID         string     `json:"seller_id"`
	BuyerID          string     `json:"buyer_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ScrapTypes       []string   `json:"scrap_types"`
	WeightKg         string     `json:"weight_kg"`
	Price            string     `json:"price"`
	ImageURL         string     `json:"image_url"`
	EnhancedImageURL string     `json:"enhanced_image_url,omitempty"`
	Address          string     `json:"address"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	SoldAt           *time.Time `json:"sold_at,omitempty"`
	CanBuy           bool       `json:"can_buy"`
}

func listingPayload(l listing.Listing, requesterID string) listingResponse {
	return listingResponse{
		ID:               l.ID,
		SellerID:         l.SellerID,
		BuyerID:          l.BuyerID,
		Title:            l.Title,
		Description:      l.Description,
		ScrapTypes:       l.ScrapTypes,
		WeightKg:         l.WeightKg.String(),
		Price:            l.Price.StringFixed(2),
		ImageURL:         l.ImageURL,
		EnhancedImageURL: l.EnhancedImageURL,
		Address:          l.Address,
		Status:           string(l.Status),
		CreatedAt:        l.CreatedAt,
		SoldAt:           l.SoldAt,
		CanBuy:           catalog.CanBuy(l, requesterID),
	}
}

type listListingsResponse struct {
	Listings []listingResponse `json:"listings"`
}

type createListingRequest struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ScrapTypes       []string        `json:"scrap_types"`
	WeightKg         decimal.Decimal `json:"weight_kg"`
	Price            decimal.Decimal `json:"price"`
	ImageURL         string          `json:"image_url"`
	EnhancedImageURL string          `json:"enhanced_image_url"`
	Address          string          `json:"address"`
}

func (r createListingRequest) input() listing.CreateInput {
	return listing.CreateInput{
		Title:            r.Title,
		Description:      r.Description,
		ScrapTypes:       r.ScrapTypes,
		WeightKg:         r.WeightKg,
		Price:            r.Price,
		ImageURL:         r.ImageURL,
		EnhancedImageURL: r.EnhancedImageURL,
		Address:          r.Address,
	}
}

type addressRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

func (r addressRequest) input() address.CreateInput {
	return address.CreateInput{
		Name:       r.Name,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
	}
}

type addressResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
}

func addressPayload(a address.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		CreatedAt:  a.CreatedAt,
	}
}

func addressesPayload(addresses []address.Address) []addressResponse {
	out := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, addressPayload(a))
	}
	return out
}

type listAddressesResponse struct {
	Addresses []addressResponse `json:"addresses"`
}

type openCheckoutRequest struct {
	ListingID string `json:"listing_id"`
}

type selectAddressRequest struct {
	AddressID string `json:"address_id"`
}

type payRequest struct {
	Method string `json:"method"`
}

type summaryResponse struct {
	Address        *addressResponse `json:"address,omitempty"`
	Price          string           `json:"price"`
	DeliveryFee    string           `json:"delivery_fee"`
	Total          string           `json:"total"`
	FormattedTotal string           `json:"formatted_total"`
}

type checkoutResponse struct {
	ID                  string             `json:"id"`
	Stage               string             `json:"stage"`
	Listing             listingResponse    `json:"listing"`
	Addresses           []addressResponse  `json:"addresses"`
	SelectedAddressID   string             `json:"selected_address_id,omitempty"`
	PaymentMethod       string             `json:"payment_method,omitempty"`
	AddressFormRequired bool               `json:"address_form_required"`
	Processing          bool               `json:"processing"`
	Completed           bool               `json:"completed"`
	Summary             summaryResponse    `json:"summary"`
	Error               *httpx.ErrorDetail `json:"error,omitempty"`
}

func checkoutPayload(r *http.Request, view checkout.View) checkoutResponse {
	summary := summaryResponse{
		Price:          view.Summary.Price.StringFixed(2),
		DeliveryFee:    view.Summary.DeliveryFee.StringFixed(2),
		Total:          view.Summary.Total.StringFixed(2),
		FormattedTotal: view.Summary.FormattedTotal,
	}
	if view.Summary.Address != nil {
		a := addressPayload(*view.Summary.Address)
		summary.Address = &a
	}
	resp := checkoutResponse{
		ID:                  view.ID,
		Stage:               view.Stage.String(),
		Listing:             listingPayload(view.Summary.Listing, view.BuyerID),
		Addresses:           addressesPayload(view.Addresses),
		SelectedAddressID:   view.SelectedAddressID,
		PaymentMethod:       string(view.PaymentMethod),
		AddressFormRequired: view.AddressFormRequired,
		Processing:          view.Processing,
		Completed:           view.Completed,
		Summary:             summary,
	}
	if view.LastError != nil {
		detail, _ := httpx.LocalizeError(r, view.LastError)
		resp.Error = &detail
	}
	return resp
}

type payResponse struct {
	Listing listingResponse `json:"listing"`
	Total   string          `json:"total"`
	Method  string          `json:"method"`
}

type imageResponse struct {
	URL string `json:"url"`
}

type analysisResponse struct {
	ScrapType       string  `json:"scrap_type"`
	Quality         string  `json:"quality"`
	EstimatedWeight float64 `json:"estimated_weight"`
}

func analysisPayload(a assist.Analysis) analysisResponse {
	return analysisResponse{ScrapType: a.ScrapType, Quality: a.Quality, EstimatedWeight: a.EstimatedWeight}
}

type draftResponse struct {
	Analysis    analysisResponse `json:"analysis"`
	Price       string           `json:"price"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

type assistDetailsRequest struct {
	ScrapType string          `json:"scrap_type"`
	Quality   string          `json:"quality"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
}

type priceResponse struct {
	Price string `json:"price"`
}

type descriptionResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
