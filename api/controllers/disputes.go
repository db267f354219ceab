package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/internal/disputes"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
)

type openDisputeRequest struct {
	OrderShortCode     string      `json:"order_short_code" validate:"required"`
	Type               string      `json:"type" validate:"required"`
	Description        string      `json:"description" validate:"required"`
	AffectedProductIDs []uuid.UUID `json:"affected_product_ids"`
	PhotoReference     *string     `json:"photo_reference"`
}

type resolveDisputeRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Note     *string `json:"note"`
}

// OpenDispute starts the return sub-workflow for an order.
func OpenDispute(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openDisputeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disputeType, err := enums.ParseDisputeType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute type"))
			return
		}

		dispute, err := svc.Open(r.Context(), disputes.OpenInput{
			OrderShortCode:     req.OrderShortCode,
			Type:               disputeType,
			Description:        req.Description,
			AffectedProductIDs: req.AffectedProductIDs,
			PhotoReference:     req.PhotoReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// ResolveDispute records the operator's accept/reject decision.
func ResolveDispute(svc disputes.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := uuid.Parse(chi.URLParam(r, "disputeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute id"))
			return
		}

		var req resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseDisputeDecision(req.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		dispute, err := svc.Resolve(r.Context(), disputes.ResolveInput{
			DisputeID: disputeID,
			Decision:  decision,
			Note:      req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordAudit(r.Context(), auditSvc, logg, "dispute.resolved",
			"order "+dispute.OrderShortCode+" decision "+string(decision))
		responses.WriteSuccess(w, dispute)
	}
}

// DisputeDetail returns a single dispute.
func DisputeDetail(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disputeID, err := uuid.Parse(chi.URLParam(r, "disputeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute id"))
			return
		}

		dispute, err := svc.Get(r.Context(), disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// ListDisputes lists disputes, optionally filtered by status.
func ListDisputes(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *enums.DisputeStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDisputeStatus(raw)
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
