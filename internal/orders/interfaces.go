package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByShortCode(ctx context.Context, shortCode string) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	// UpdateStatusGuarded flips the status only when the stored status still
	// matches expected. Returns false when another writer got there first.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, updates map[string]any) (bool, error)
	AppendStatusEntry(ctx context.Context, entry *models.OrderStatusEntry) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
