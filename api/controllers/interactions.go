package controllers

import (
	"net/http"

	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/api/responses"
	"github.com/uretimhub/uretimhub-backend/api/validators"
	"github.com/uretimhub/uretimhub-backend/internal/interactions"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"

	"github.com/google/uuid"
)

type addCommentRequest struct {
	Body   string `json:"body" validate:"required,max=2000"`
	Rating *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

type addOfferRequest struct {
	PriceKurus   int64   `json:"priceKurus" validate:"gt=0"`
	Currency     string  `json:"currency" validate:"omitempty,len=3"`
	Message      *string `json:"message" validate:"omitempty,max=1000"`
	DeliveryDays int     `json:"deliveryDays" validate:"gt=0"`
}

type decideOfferRequest struct {
	Status string `json:"status" validate:"required"`
}

type addOrderRequest struct {
	VariantID *uuid.UUID `json:"variantId"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
}

// ToggleLike handles POST /listings/{kind}/{listingId}/like.
func ToggleLike(svc *interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
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
		userID := middleware.UserIDFromContext(r.Context())

		result, err := svc.ToggleLike(r.Context(), kind, listingID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AddComment handles POST /listings/{kind}/{listingId}/comments.
func AddComment(svc *interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
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
		userID := middleware.UserIDFromContext(r.Context())

		var body addCommentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), kind, listingID, userID, validators.SanitizeString(body.Body, 2000), body.Rating)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}

// AddOffer handles POST /listings/{kind}/{listingId}/offers.
func AddOffer(svc *interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
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
		userID := middleware.UserIDFromContext(r.Context())

		var body addOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency := enums.CurrencyTRY
		if body.Currency != "" {
			parsed, err := enums.ParseCurrency(body.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown currency"))
				return
			}
			currency = parsed
		}

		offer, err := svc.AddOffer(r.Context(), kind, listingID, userID, interactions.OfferInput{
			PriceKurus:   body.PriceKurus,
			Currency:     currency,
			Message:      body.Message,
			DeliveryDays: body.DeliveryDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// DecideOffer handles POST /producer/listings/{kind}/{listingId}/offers/{offerId}/decision.
// Only the listing owner may decide, and a decision is final.
func DecideOffer(svc *interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
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
		offerID, err := pathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserIDFromContext(r.Context())

		var body decideOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOfferStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown offer status"))
			return
		}

		if err := svc.DecideOffer(r.Context(), kind, listingID, offerID, actorID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}

// AddOrderInteraction handles POST /products/{productId}/orders. This is the
// lightweight order-intent ledger entry on a product, not a checkout order.
func AddOrderInteraction(svc *interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(r.Context())

		var body addOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AddOrder(r.Context(), productID, userID, interactions.OrderInput{
			VariantID: body.VariantID,
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
