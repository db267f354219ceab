package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/logger"
)

// retentionCap is the number of audit rows kept. Older rows are pruned on
// every write so the table stays a rolling window rather than a full history.
const retentionCap = 200

// Entry describes one auditable action.
type Entry struct {
	Actor    string
	Action   string
	Details  *string
	Severity enums.LogSeverity
}

// Service records operator-visible audit events.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]models.SystemLog, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the audit trail service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Record appends an audit row and prunes past the retention cap. Pruning
// failures are logged but never surface to the caller; losing old rows is
// acceptable, losing the new one is not.
func (s *service) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Actor) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "action required")
	}
	severity := entry.Severity
	if severity == "" {
		severity = enums.LogSeverityInfo
	}
	if !severity.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid severity")
	}

	row := &models.SystemLog{
		Actor:    strings.TrimSpace(entry.Actor),
		Action:   strings.TrimSpace(entry.Action),
		Details:  entry.Details,
		Severity: severity,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist audit entry")
	}

	if _, err := s.repo.TrimToNewest(ctx, retentionCap); err != nil {
		s.logg.Error(ctx, "audit retention prune failed", err)
	}
	return nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.SystemLog, error) {
	if limit <= 0 || limit > retentionCap {
		limit = retentionCap
	}
	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return entries, nil
}
