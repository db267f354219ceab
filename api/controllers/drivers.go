package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/middleware"
	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/drivers"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
)

type registerDriverRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// RegisterDriver enrolls a driver under the signed-in partner, pending
// operator approval.
func RegisterDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req registerDriverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.Register(r.Context(), drivers.RegisterInput{
			PartnerID: partnerID,
			FullName:  req.FullName,
			Phone:     req.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, driver)
	}
}

// ListPartnerDrivers lists the signed-in partner's roster.
func ListPartnerDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		listed, err := svc.ListByPartner(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

// ListDrivers lists every driver, optionally filtered by status.
func ListDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *enums.DriverStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDriverStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter = &status
		}

		listed, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listed)
	}
}

func driverTransition(fn func(r *http.Request, driverID uuid.UUID) (any, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := uuid.Parse(chi.URLParam(r, "driverId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		result, err := fn(r, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ApproveDriver activates a pending driver.
func ApproveDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return driverTransition(func(r *http.Request, driverID uuid.UUID) (any, error) {
		return svc.Approve(r.Context(), driverID)
	}, logg)
}

// SuspendDriver takes an active driver off the road.
func SuspendDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return driverTransition(func(r *http.Request, driverID uuid.UUID) (any, error) {
		return svc.Suspend(r.Context(), driverID)
	}, logg)
}

// ReinstateDriver returns a suspended driver to active duty.
func ReinstateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return driverTransition(func(r *http.Request, driverID uuid.UUID) (any, error) {
		return svc.Reinstate(r.Context(), driverID)
	}, logg)
}
