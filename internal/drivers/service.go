package drivers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
)

// RegisterInput enrolls a new driver under a partner. Drivers start
// pending_approval and cannot work until the operator activates them.
type RegisterInput struct {
	PartnerID uuid.UUID
	FullName  string
	Phone     string
}

// Service manages the partner driver roster.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Driver, error)
	Approve(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	Suspend(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	Reinstate(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Driver, error)
	List(ctx context.Context, status *enums.DriverStatus) ([]models.Driver, error)
}

type service struct {
	repo Repository
}

// NewService builds the driver roster service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Driver, error) {
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver phone required")
	}

	driver := &models.Driver{
		PartnerID: input.PartnerID,
		FullName:  strings.TrimSpace(input.FullName),
		Phone:     strings.TrimSpace(input.Phone),
		Status:    enums.DriverStatusPendingApproval,
	}
	created, err := s.repo.Create(ctx, driver)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist driver")
	}
	return created, nil
}

func (s *service) Approve(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	return s.transition(ctx, driverID, enums.DriverStatusPendingApproval, enums.DriverStatusActive)
}

func (s *service) Suspend(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	return s.transition(ctx, driverID, enums.DriverStatusActive, enums.DriverStatusSuspended)
}

func (s *service) Reinstate(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	return s.transition(ctx, driverID, enums.DriverStatusSuspended, enums.DriverStatusActive)
}

func (s *service) transition(ctx context.Context, driverID uuid.UUID, expected, next enums.DriverStatus) (*models.Driver, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	updated, err := s.repo.UpdateStatusGuarded(ctx, driverID, expected, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver status")
	}
	if !updated {
		driver, err := s.repo.FindByID(ctx, driverID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("driver is %s, expected %s", driver.Status, expected))
	}

	driver, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	return driver, nil
}

func (s *service) Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	driver, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	return driver, nil
}

func (s *service) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Driver, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	drivers, err := s.repo.ListByPartner(ctx, partnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return drivers, nil
}

func (s *service) List(ctx context.Context, status *enums.DriverStatus) ([]models.Driver, error) {
	drivers, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return drivers, nil
}
