package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/internal/settlement"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
	"github.com/grandmarche/backend/pkg/pagination"
)

// ListFinancialRecords pages through settlement records.
func ListFinancialRecords(svc settlement.Service, logg *logger.Logger) http.HandlerFunc {
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

		var filters settlement.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseFinancialRecordStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListRecords(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ToggleFinancialRecord flips a record between active and archived.
func ToggleFinancialRecord(svc settlement.Service, auditSvc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID, err := uuid.Parse(chi.URLParam(r, "recordId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		record, err := svc.ToggleRecordStatus(r.Context(), recordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordAudit(r.Context(), auditSvc, logg, "finance.record_toggled",
			"record for order "+record.OrderShortCode+" now "+string(record.Status))
		responses.WriteSuccess(w, record)
	}
}
