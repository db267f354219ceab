package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/config"
	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
)

// userLoader is the slice of the users repo delivery needs.
type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindPartnerByPickupPoint(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error)
}

// CreateZoneInput defines a new delivery zone.
type CreateZoneInput struct {
	City      string
	Commune   *string
	FeeAmount int64
	PartnerID *uuid.UUID
}

// Service resolves delivery fees and handling partners from zones.
type Service interface {
	Fee(ctx context.Context, method enums.DeliveryMethod, city string, commune *string) (int64, error)
	ResolveZonePartner(ctx context.Context, city string, commune *string) (*models.User, error)
	ResolvePickupPartner(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error)
	CreateZone(ctx context.Context, input CreateZoneInput) (*models.DeliveryZone, error)
	SetZoneActive(ctx context.Context, zoneID uuid.UUID, active bool) error
	ListZones(ctx context.Context) ([]models.DeliveryZone, error)
}

type service struct {
	repo  Repository
	users userLoader
	cfg   config.DeliveryConfig
}

// NewService builds the delivery zone service.
func NewService(repo Repository, users userLoader, cfg config.DeliveryConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, users: users, cfg: cfg}, nil
}

// Fee computes the delivery fee. Pickup is free; home delivery uses the zone
// fee when a zone matches and falls back to the metro or interior flat rate.
func (s *service) Fee(ctx context.Context, method enums.DeliveryMethod, city string, commune *string) (int64, error) {
	if method == enums.DeliveryMethodPickup {
		return 0, nil
	}

	zone, err := s.matchZone(ctx, city, commune)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.isMetro(city) {
				return s.cfg.MetroDefaultFee, nil
			}
			return s.cfg.InteriorFee, nil
		}
		return 0, err
	}
	return zone.FeeAmount, nil
}

// ResolveZonePartner returns the partner handling the matched zone, or
// gorm.ErrRecordNotFound when no zone or no partner applies.
func (s *service) ResolveZonePartner(ctx context.Context, city string, commune *string) (*models.User, error) {
	zone, err := s.matchZone(ctx, city, commune)
	if err != nil {
		return nil, err
	}
	if zone.PartnerID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.users.FindByID(ctx, *zone.PartnerID)
}

func (s *service) ResolvePickupPartner(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error) {
	return s.users.FindPartnerByPickupPoint(ctx, pickupPointID)
}

func (s *service) CreateZone(ctx context.Context, input CreateZoneInput) (*models.DeliveryZone, error) {
	if strings.TrimSpace(input.City) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city required")
	}
	if input.FeeAmount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee must not be negative")
	}
	zone := &models.DeliveryZone{
		City:      input.City,
		Commune:   input.Commune,
		FeeAmount: input.FeeAmount,
		PartnerID: input.PartnerID,
		IsActive:  true,
	}
	created, err := s.repo.Create(ctx, zone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist delivery zone")
	}
	return created, nil
}

func (s *service) SetZoneActive(ctx context.Context, zoneID uuid.UUID, active bool) error {
	if zoneID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "zone id required")
	}
	if err := s.repo.Update(ctx, zoneID, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery zone")
	}
	return nil
}

func (s *service) ListZones(ctx context.Context) ([]models.DeliveryZone, error) {
	zones, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery zones")
	}
	return zones, nil
}

// matchZone applies the metro rule: inside the metro city the commune decides
// the zone, elsewhere the city alone does.
func (s *service) matchZone(ctx context.Context, city string, commune *string) (*models.DeliveryZone, error) {
	if s.isMetro(city) {
		return s.repo.FindMatch(ctx, city, commune)
	}
	return s.repo.FindMatch(ctx, city, nil)
}

func (s *service) isMetro(city string) bool {
	return strings.EqualFold(strings.TrimSpace(city), s.cfg.MetroCity)
}
