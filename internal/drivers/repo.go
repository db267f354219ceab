package drivers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
)

// Repository defines persistence operations for delivery drivers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	// UpdateStatusGuarded moves a driver between statuses only when the row
	// still holds the expected one. Returns false when it does not.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next enums.DriverStatus) (bool, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Driver, error)
	List(ctx context.Context, status *enums.DriverStatus) ([]models.Driver, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a drivers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	if err := r.db.WithContext(ctx).Create(driver).Error; err != nil {
		return nil, err
	}
	return driver, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next enums.DriverStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Driver, error) {
	var drivers []models.Driver
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC").
		Find(&drivers).Error
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *repository) List(ctx context.Context, status *enums.DriverStatus) ([]models.Driver, error) {
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var drivers []models.Driver
	if err := query.Order("created_at DESC").Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}
