package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
)

// Repository defines persistence operations for system logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.SystemLog) error
	// TrimToNewest deletes everything older than the newest keep rows.
	TrimToNewest(ctx context.Context, keep int) (int64, error)
	List(ctx context.Context, limit int) ([]models.SystemLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a system log repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.SystemLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) TrimToNewest(ctx context.Context, keep int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM system_logs
		WHERE id NOT IN (
			SELECT id FROM system_logs
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)`, keep)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, limit int) ([]models.SystemLog, error) {
	var entries []models.SystemLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
