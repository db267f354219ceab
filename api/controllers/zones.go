package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/delivery"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
)

type createZoneRequest struct {
	City      string     `json:"city" validate:"required"`
	Commune   *string    `json:"commune"`
	FeeAmount int64      `json:"fee_amount" validate:"min=0"`
	PartnerID *uuid.UUID `json:"partner_id"`
}

type setZoneActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CreateZone defines a priced delivery zone.
func CreateZone(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createZoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		zone, err := svc.CreateZone(r.Context(), delivery.CreateZoneInput{
			City:      req.City,
			Commune:   req.Commune,
			FeeAmount: req.FeeAmount,
			PartnerID: req.PartnerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, zone)
	}
}

// SetZoneActive enables or disables a delivery zone.
func SetZoneActive(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID, err := uuid.Parse(chi.URLParam(r, "zoneId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid zone id"))
			return
		}

		var req setZoneActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetZoneActive(r.Context(), zoneID, *req.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// ListZones lists every delivery zone.
func ListZones(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zones, err := svc.ListZones(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, zones)
	}
}
