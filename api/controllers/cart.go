package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/api/responses"
	"github.com/uretimhub/uretimhub-backend/api/validators"
	"github.com/uretimhub/uretimhub-backend/internal/cart"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	VariantID *uuid.UUID `json:"variantId"`
	Size      *string    `json:"size" validate:"omitempty,max=32"`
	Color     *string    `json:"color" validate:"omitempty,max=32"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// GetCart handles GET /cart.
func GetCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		c, err := svc.Get(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// AddCartItem handles POST /cart/items. Lines with the same product and
// variant selection are merged.
func AddCartItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.AddItem(r.Context(), buyerID, cart.AddItemInput{
			ProductID: body.ProductID,
			VariantID: body.VariantID,
			Size:      body.Size,
			Color:     body.Color,
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// UpdateCartItem handles PATCH /cart/items/{itemId}.
func UpdateCartItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.UpdateItemQuantity(r.Context(), buyerID, itemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// RemoveCartItem handles DELETE /cart/items/{itemId}.
func RemoveCartItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.RemoveItem(r.Context(), buyerID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// ClearCart handles DELETE /cart.
func ClearCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
