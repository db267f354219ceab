package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/pagination"
)

// Repository defines persistence operations for settlement records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// MarkOrderProcessed flips financial_processed false->true. Returns false
	// when the order was already processed, which makes settlement a no-op.
	MarkOrderProcessed(ctx context.Context, orderID uuid.UUID) (bool, error)
	CreateRecord(ctx context.Context, record *models.FinancialRecord) (*models.FinancialRecord, error)
	FindRecordByID(ctx context.Context, id uuid.UUID) (*models.FinancialRecord, error)
	FindRecordByOrderID(ctx context.Context, orderID uuid.UUID) (*models.FinancialRecord, error)
	UpdateRecordStatus(ctx context.Context, id uuid.UUID, status enums.FinancialRecordStatus) error
	ListRecords(ctx context.Context, params pagination.Params, filters ListFilters) (*RecordList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) MarkOrderProcessed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND financial_processed = false", orderID).
		UpdateColumn("financial_processed", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CreateRecord(ctx context.Context, record *models.FinancialRecord) (*models.FinancialRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.FinancialRecord, error) {
	var record models.FinancialRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindRecordByOrderID(ctx context.Context, orderID uuid.UUID) (*models.FinancialRecord, error) {
	var record models.FinancialRecord
	if err := r.db.WithContext(ctx).First(&record, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) UpdateRecordStatus(ctx context.Context, id uuid.UUID, status enums.FinancialRecordStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FinancialRecord{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

func (r *repository) ListRecords(ctx context.Context, params pagination.Params, filters ListFilters) (*RecordList, error) {
	query := r.db.WithContext(ctx).Model(&models.FinancialRecord{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.FinancialRecord
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &RecordList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	list.Records = rows
	return list, nil
}
