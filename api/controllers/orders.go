package controllers

import (
	"net/http"
	"strings"

	"github.com/uretimhub/uretimhub-backend/api/middleware"
	"github.com/uretimhub/uretimhub-backend/api/responses"
	"github.com/uretimhub/uretimhub-backend/api/validators"
	"github.com/uretimhub/uretimhub-backend/internal/orders"
	"github.com/uretimhub/uretimhub-backend/pkg/enums"
	pkgerrors "github.com/uretimhub/uretimhub-backend/pkg/errors"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/db/models"
	"github.com/uretimhub/uretimhub-backend/pkg/pagination"
)

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type advanceOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderListResponse struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// ListMyOrders handles GET /orders, scoped to the authenticated buyer.
func ListMyOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, next, err := svc.ListForBuyer(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{Orders: list, NextCursor: next})
	}
}

// ListSellerOrders handles GET /producer/orders.
func ListSellerOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		sellerID := middleware.UserIDFromContext(r.Context())

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, next, err := svc.ListForSeller(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{Orders: list, NextCursor: next})
	}
}

// GetOrder handles GET /orders/{orderId}. Only the buyer or the seller of the
// order may read it.
func GetOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserIDFromContext(r.Context())

		order, err := svc.Get(r.Context(), orderID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder handles POST /orders/{orderId}/cancel. Only the buyer may
// cancel, and only while the order is still pending.
func CancelOrder(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		buyerID := middleware.UserIDFromContext(r.Context())

		var body cancelOrderRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, buyerID, validators.SanitizeString(body.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdvanceOrderStatus handles POST /producer/orders/{orderId}/status. Sellers
// move orders forward only; skipping intermediate stages is allowed.
func AdvanceOrderStatus(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID := middleware.UserIDFromContext(r.Context())

		var body advanceOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, err := svc.AdvanceStatus(r.Context(), orderID, sellerID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
