package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/api/responses"
	"github.com/uretimhub/uretimhub-backend/api/validators"
	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
)

type createVariantRequest struct {
	Size       string `json:"size" validate:"required,max=32"`
	Color      string `json:"color" validate:"required,max=32"`
	Stock      int    `json:"stock" validate:"min=0"`
	PriceKurus int64  `json:"priceKurus" validate:"gt=0"`
}

type createProductRequest struct {
	Title             string                 `json:"title" validate:"required,max=160"`
	Description       *string                `json:"description" validate:"omitempty,max=4000"`
	Category          string                 `json:"category" validate:"required,max=64"`
	PriceKurus        int64                  `json:"priceKurus" validate:"gt=0"`
	AvailableQuantity int                    `json:"availableQuantity" validate:"min=0"`
	MediaURLs         []string               `json:"mediaUrls" validate:"omitempty,dive,url"`
	Variants          []createVariantRequest `json:"variants" validate:"omitempty,dive"`
}

type createProductionListingRequest struct {
	Title            string   `json:"title" validate:"required,max=160"`
	Description      *string  `json:"description" validate:"omitempty,max=4000"`
	Category         string   `json:"category" validate:"required,max=64"`
	MonthlyCapacity  int      `json:"monthlyCapacity" validate:"gt=0"`
	MinOrderQuantity int      `json:"minOrderQuantity" validate:"gte=1"`
	UnitPriceKurus   *int64   `json:"unitPriceKurus" validate:"omitempty,gt=0"`
	Materials        []string `json:"materials" validate:"omitempty,dive,max=64"`
}

type activationResponse struct {
	ActivatedAt      time.Time `json:"activatedAt"`
	AutoDeactivateAt time.Time `json:"autoDeactivateAt"`
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, param+" must be a valid uuid")
	}
	return id, nil
}

func pathListingKind(r *http.Request) (enums.ListingKind, error) {
	kind, err := enums.ParseListingKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown listing kind")
	}
	return kind, nil
}

// CreateProduct handles POST /producer/products.
func CreateProduct(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		producerID := middleware.UserIDFromContext(r.Context())

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := listings.CreateProductInput{
			Title:             validators.SanitizeString(body.Title, 160),
			Description:       body.Description,
			Category:          validators.SanitizeString(body.Category, 64),
			PriceKurus:        body.PriceKurus,
			AvailableQuantity: body.AvailableQuantity,
			MediaURLs:         body.MediaURLs,
		}
		for _, v := range body.Variants {
			input.Variants = append(input.Variants, listings.VariantInput{
				Size:       validators.SanitizeString(v.Size, 32),
				Color:      validators.SanitizeString(v.Color, 32),
				Stock:      v.Stock,
				PriceKurus: v.PriceKurus,
			})
		}

		product, err := svc.CreateProduct(r.Context(), producerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// CreateProductionListing handles POST /producer/production-listings.
func CreateProductionListing(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		producerID := middleware.UserIDFromContext(r.Context())

		var body createProductionListingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.CreateProductionListing(r.Context(), producerID, listings.CreateProductionListingInput{
			Title:            validators.SanitizeString(body.Title, 160),
			Description:      body.Description,
			Category:         validators.SanitizeString(body.Category, 64),
			MonthlyCapacity:  body.MonthlyCapacity,
			MinOrderQuantity: body.MinOrderQuantity,
			UnitPriceKurus:   body.UnitPriceKurus,
			Materials:        body.Materials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// GetProduct handles GET /products/{productId}.
func GetProduct(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// GetProductionListing handles GET /production-listings/{listingId}.
func GetProductionListing(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetProductionListing(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListMyProducts handles GET /producer/products.
func ListMyProducts(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		producerID := middleware.UserIDFromContext(r.Context())
		products, err := svc.ListProducerProducts(r.Context(), producerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ListMyProductionListings handles GET /producer/production-listings.
func ListMyProductionListings(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		producerID := middleware.UserIDFromContext(r.Context())
		items, err := svc.ListProducerProductionListings(r.Context(), producerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ActivateListing handles POST /producer/listings/{kind}/{listingId}/activate.
// Activating an already-active listing restarts its deactivation window.
func ActivateListing(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		kind, err := pathListingKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserIDFromContext(r.Context())

		result, err := svc.Activate(r.Context(), kind, listingID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, activationResponse{
			ActivatedAt:      result.ActivatedAt,
			AutoDeactivateAt: result.AutoDeactivateAt,
		})
	}
}

// DeactivateListing handles POST /producer/listings/{kind}/{listingId}/deactivate.
func DeactivateListing(svc *listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}
		kind, err := pathListingKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserIDFromContext(r.Context())

		if err := svc.Deactivate(r.Context(), kind, listingID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}
