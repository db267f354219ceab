package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/middleware"
	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/internal/orders"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
	"github.com/grandmarche/backend/pkg/pagination"
)

type checkoutItemRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	SupplierID *uuid.UUID `json:"supplier_id"`
	Name       string     `json:"name" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	UnitPrice  int64      `json:"unit_price" validate:"min=0"`
	Capital    int64      `json:"capital" validate:"min=0"`
}

type checkoutRequest struct {
	CustomerName   string                `json:"customer_name" validate:"required"`
	CustomerPhone  string                `json:"customer_phone" validate:"required"`
	City           string                `json:"city" validate:"required"`
	Commune        *string               `json:"commune"`
	Address        *string               `json:"address"`
	DeliveryMethod string                `json:"delivery_method" validate:"required"`
	PickupPointID  *uuid.UUID            `json:"pickup_point_id"`
	PaymentMethod  string                `json:"payment_method" validate:"required"`
	CouponCode     *string               `json:"coupon_code"`
	Items          []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

type transitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type collectionCodeRequest struct {
	Code string `json:"code" validate:"required,len=4"`
}

type reviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}

// Checkout accepts a cart and opens the order pipeline for it.
func Checkout(svc orders.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseDeliveryMethod(req.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}
		payment, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := orders.CreateInput{
			CustomerName:   req.CustomerName,
			CustomerPhone:  req.CustomerPhone,
			City:           req.City,
			Commune:        req.Commune,
			Address:        req.Address,
			DeliveryMethod: method,
			PickupPointID:  req.PickupPointID,
			PaymentMethod:  payment,
			CouponCode:     req.CouponCode,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.ItemInput{
				ProductID:  item.ProductID,
				SupplierID: item.SupplierID,
				Name:       item.Name,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Capital:    item.Capital,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordAudit(r.Context(), auditSvc, logg, "order.created",
			fmt.Sprintf("order %s for %d FCFA", order.ShortCode, order.TotalAmount))
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// TrackOrder is the public tracking endpoint keyed on the short code.
func TrackOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := strings.TrimSpace(chi.URLParam(r, "shortCode"))
		view, err := svc.Track(r.Context(), shortCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ListOrders pages through orders, optionally filtered by status and partner.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var filters orders.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("partnerId")); raw != "" {
			partnerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id"))
				return
			}
			filters.PartnerID = &partnerID
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListAssignedOrders pages through the signed-in partner's orders.
func ListAssignedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		filters := orders.ListFilters{PartnerID: &partnerID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns the full order row for back-office screens.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TransitionOrder moves the order along the lifecycle table.
func TransitionOrder(svc orders.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.Transition(r.Context(), orders.TransitionInput{
			OrderID: orderID,
			Status:  status,
			Note:    req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordAudit(r.Context(), auditSvc, logg, "order.transitioned",
			fmt.Sprintf("order %s to %s", order.ShortCode, order.Status))
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels an order with a mandatory reason.
func CancelOrder(svc orders.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var req cancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordAudit(r.Context(), auditSvc, logg, "order.cancelled",
			fmt.Sprintf("order %s: %s", order.ShortCode, req.Reason))
		responses.WriteSuccess(w, order)
	}
}

// ValidateCollectionCode checks the 4-digit pickup code a customer presents
// at the counter. A correct code hands the order over and settles it.
func ValidateCollectionCode(svc orders.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := strings.TrimSpace(chi.URLParam(r, "shortCode"))

		var req collectionCodeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ValidateCollectionCode(r.Context(), shortCode, req.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Valid {
			recordAudit(r.Context(), auditSvc, logg, "order.collected", "order "+shortCode)
		}
		responses.WriteSuccess(w, result)
	}
}

// SubmitReview records the one-shot post-delivery review.
func SubmitReview(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := strings.TrimSpace(chi.URLParam(r, "shortCode"))

		var req reviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SubmitReview(r.Context(), orders.ReviewInput{
			ShortCode: shortCode,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "recorded"})
	}
}
