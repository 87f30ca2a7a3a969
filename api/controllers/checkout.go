package controllers

import (
	"net/http"

	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/api/responses"
	"github.com/uretimhub/uretimhub-backend/api/validators"
	"github.com/uretimhub/uretimhub-backend/internal/checkout"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/types"
)

type checkoutRequest struct {
	ShippingAddress types.Address  `json:"shippingAddress" validate:"required"`
	BillingAddress  *types.Address `json:"billingAddress"`
	Notes           *string        `json:"notes" validate:"omitempty,max=1000"`
}

// Checkout handles POST /checkout. The cart is partitioned into one order per
// seller; the cart is cleared only after every order persists.
func Checkout(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.Execute(r.Context(), buyerID, checkout.Input{
			ShippingAddress: body.ShippingAddress,
			BillingAddress:  body.BillingAddress,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orders)
	}
}
