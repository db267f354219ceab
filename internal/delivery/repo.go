package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
)

// Repository defines persistence operations for delivery zones.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, zone *models.DeliveryZone) (*models.DeliveryZone, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error)
	// FindMatch returns the active zone for the destination. Commune narrows
	// the match inside the metro area; elsewhere the city alone decides.
	FindMatch(ctx context.Context, city string, commune *string) (*models.DeliveryZone, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context) ([]models.DeliveryZone, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery zone repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, zone *models.DeliveryZone) (*models.DeliveryZone, error) {
	if err := r.db.WithContext(ctx).Create(zone).Error; err != nil {
		return nil, err
	}
	return zone, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	if err := r.db.WithContext(ctx).First(&zone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *repository) FindMatch(ctx context.Context, city string, commune *string) (*models.DeliveryZone, error) {
	query := r.db.WithContext(ctx).Where("city = ? AND is_active = true", city)
	if commune != nil && *commune != "" {
		query = query.Where("commune = ?", *commune)
	} else {
		query = query.Where("commune IS NULL")
	}
	var zone models.DeliveryZone
	if err := query.First(&zone).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryZone{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context) ([]models.DeliveryZone, error) {
	var zones []models.DeliveryZone
	if err := r.db.WithContext(ctx).Order("city ASC, commune ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}
