package products

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
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
	"github.com/grandmarche/backend/pkg/pagination"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput defines a new catalog entry.
type CreateInput struct {
	Name              string
	SupplierID        *uuid.UUID
	Price             int64
	Capital           int64
	Stock             int
	LowStockThreshold int
}

// UpdateInput carries optional catalog mutations.
type UpdateInput struct {
	Name              *string
	Price             *int64
	Capital           *int64
	LowStockThreshold *int
	IsActive          *bool
}

// StockLine is one checkout line to take off the shelf.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// ListResult wraps a catalog page.
type ListResult struct {
	Products   []models.Product
	NextCursor string
}

// Service manages the supplier catalog and its stock levels.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateInput) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, activeOnly bool) (*ListResult, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int) error
	// Reserve decrements stock for every line inside the caller's
	// transaction and raises low-stock alerts on threshold crossings.
	Reserve(ctx context.Context, tx *gorm.DB, lines []StockLine) error
}

type service struct {
	repo   Repository
	outbox outboxPublisher
}

// NewService builds the catalog service.
func NewService(repo Repository, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price < 0 || input.Capital < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		SupplierID:    input.SupplierID,
		PriceAmount:   input.Price,
		CapitalAmount: input.Capital,
		Stock:         input.Stock,
		IsActive:      true,
	}
	if input.LowStockThreshold > 0 {
		product.LowStockThreshold = input.LowStockThreshold
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price_amount"] = *input.Price
	}
	if input.Capital != nil {
		if *input.Capital < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "capital must not be negative")
		}
		updates["capital_amount"] = *input.Capital
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must not be negative")
		}
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return s.Get(ctx, productID)
	}

	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.Get(ctx, productID)
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, activeOnly bool) (*ListResult, error) {
	listParams := ListParams{Limit: params.Limit, ActiveOnly: activeOnly}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		listParams.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, listParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ListResult{Products: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	rows, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier products")
	}
	return rows, nil
}

func (s *service) Restock(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.repo.AddStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
	}
	return nil
}

// Reserve claims stock line by line. The alert fires only on the crossing,
// not on every sale below the threshold.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	repo := s.repo.WithTx(tx)

	for _, line := range lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		product, claimed, err := repo.DecrementStockGuarded(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for product %s", line.ProductID))
		}

		before := product.Stock + line.Quantity
		if product.Stock <= product.LowStockThreshold && before > product.LowStockThreshold {
			err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				Version:       1,
				Data: payloads.LowStockEvent{
					ProductID:   product.ID,
					ProductName: product.Name,
					SupplierID:  product.SupplierID,
					Remaining:   product.Stock,
					Threshold:   product.LowStockThreshold,
				},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
