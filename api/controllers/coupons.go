package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/coupons"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
)

type validateCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type createPromoRequest struct {
	Code           string `json:"code" validate:"required"`
	Kind           string `json:"kind" validate:"required"`
	Value          int64  `json:"value" validate:"required,min=1"`
	MinSpendAmount *int64 `json:"min_spend_amount"`
}

type setPromoActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ValidateCoupon checks a voucher or promo code before checkout.
func ValidateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateCouponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), req.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RedeemRefund acknowledges a refund voucher handover at the counter.
func RedeemRefund(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := strings.TrimSpace(chi.URLParam(r, "shortCode"))
		if err := svc.Redeem(r.Context(), shortCode); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "redeemed"})
	}
}

// CreatePromo registers a reusable discount code.
func CreatePromo(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPromoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParsePromoKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo kind"))
			return
		}

		promo, err := svc.CreatePromo(r.Context(), coupons.CreatePromoInput{
			Code:           req.Code,
			Kind:           kind,
			Value:          req.Value,
			MinSpendAmount: req.MinSpendAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// SetPromoActive enables or pauses a promo code.
func SetPromoActive(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := uuid.Parse(chi.URLParam(r, "promoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo id"))
			return
		}

		var req setPromoActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetPromoActive(r.Context(), promoID, *req.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ListPromos lists all promo codes for the back office.
func ListPromos(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.ListPromos(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// ListVouchers lists refund vouchers, optionally filtered by status.
func ListVouchers(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *enums.VoucherStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseVoucherStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter = &status
		}

		vouchers, err := svc.ListVouchers(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vouchers)
	}
}
