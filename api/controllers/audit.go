package controllers

import (
	"context"
	"net/http"

	"github.com/grandmarche/backend/api/middleware"
	"github.com/grandmarche/backend/api/responses"
	"github.com/grandmarche/backend/api/validators"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/logger"
)

// recordAudit appends a system log entry for a completed mutation. Auditing is
// best effort: a failed write is logged and never fails the request.
func recordAudit(ctx context.Context, svc audit.Service, logg *logger.Logger, action, details string) {
	if svc == nil {
		return
	}
	actor := middleware.UserIDFromContext(ctx)
	if actor == "" {
		actor = "guest"
	}
	entry := audit.Entry{Actor: actor, Action: action, Severity: enums.LogSeverityInfo}
	if details != "" {
		entry.Details = &details
	}
	if err := svc.Record(ctx, entry); err != nil {
		logg.Warn(logg.WithField(ctx, "action", action), "audit record failed")
	}
}

// RecentAuditLogs returns the newest system log entries.
func RecentAuditLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
