package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
)

// Repository defines persistence operations for vouchers and promo codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error)
	CreateVoucher(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error)
	// ConsumeVoucher flips an active voucher to used. Returns false when the
	// voucher was already consumed by another order.
	ConsumeVoucher(ctx context.Context, code string, orderID uuid.UUID, at time.Time) (bool, error)
	FindPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	UpdatePromo(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPromos(ctx context.Context) ([]models.PromoCode, error)
	ListVouchers(ctx context.Context, status *enums.VoucherStatus) ([]models.Voucher, error)
	FindOrderByShortCode(ctx context.Context, shortCode string) (*models.Order, error)
	UpdateOrderFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupons repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) CreateVoucher(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func (r *repository) ConsumeVoucher(ctx context.Context, code string, orderID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("code = ? AND status = ?", code, enums.VoucherStatusActive).
		Updates(map[string]any{
			"status":        enums.VoucherStatusUsed,
			"used_order_id": orderID,
			"used_at":       at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := r.db.WithContext(ctx).First(&promo, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *repository) UpdatePromo(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListPromos(ctx context.Context) ([]models.PromoCode, error) {
	var promos []models.PromoCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

func (r *repository) ListVouchers(ctx context.Context, status *enums.VoucherStatus) ([]models.Voucher, error) {
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var vouchers []models.Voucher
	if err := query.Order("created_at DESC").Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (r *repository) FindOrderByShortCode(ctx context.Context, shortCode string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "short_code = ?", shortCode).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrderFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
