package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/metrics"
	"github.com/grandmarche/backend/pkg/pagination"
)

// Gross profit distribution ratios. Each share is rounded independently;
// rounding drift against the full profit is accepted, not corrected.
var (
	supplierRate = decimal.NewFromFloat(0.30)
	taxRate      = decimal.NewFromFloat(0.18)
	partnerRate  = decimal.NewFromFloat(0.17)
	operatorRate = decimal.NewFromFloat(0.35)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ListFilters narrows the settlement record listing.
type ListFilters struct {
	Status *enums.FinancialRecordStatus
}

// RecordList is one page of financial records.
type RecordList struct {
	Records    []models.FinancialRecord `json:"records"`
	NextCursor *string                  `json:"next_cursor,omitempty"`
}

// Service is the financial settlement engine.
type Service interface {
	Settle(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ToggleRecordStatus(ctx context.Context, recordID uuid.UUID) (*models.FinancialRecord, error)
	ListRecords(ctx context.Context, params pagination.Params, filters ListFilters) (*RecordList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.PipelineMetrics
}

// NewService builds the settlement service.
func NewService(repo Repository, tx txRunner, pipelineMetrics *metrics.PipelineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: pipelineMetrics}, nil
}

// Settle creates the financial record for a delivered order exactly once. The
// financial_processed guard makes repeated or concurrent delivery transitions
// a no-op after the first.
func (s *service) Settle(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "settlement requires a transaction")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.FinancialProcessed {
		return nil
	}

	repo := s.repo.WithTx(tx)
	claimed, err := repo.MarkOrderProcessed(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim settlement")
	}
	if !claimed {
		return nil
	}
	order.FinancialProcessed = true

	totalSales := int64(0)
	totalCapital := int64(0)
	for _, item := range order.Items {
		qty := int64(item.Quantity)
		totalSales += item.UnitPriceAmount * qty
		totalCapital += item.CapitalAmount * qty
	}

	grossProfit := totalSales - totalCapital
	if grossProfit < 0 {
		grossProfit = 0
	}
	profit := decimal.NewFromInt(grossProfit)

	record := &models.FinancialRecord{
		OrderID:           order.ID,
		OrderShortCode:    order.ShortCode,
		SettledAt:         time.Now().UTC(),
		SalesAmount:       totalSales,
		CapitalAmount:     totalCapital,
		GrossProfitAmount: grossProfit,
		SupplierShare:     profit.Mul(supplierRate).Round(0).IntPart(),
		TaxShare:          profit.Mul(taxRate).Round(0).IntPart(),
		PartnerShare:      profit.Mul(partnerRate).Round(0).IntPart(),
		OperatorShare:     profit.Mul(operatorRate).Round(0).IntPart(),
		Status:            enums.FinancialRecordStatusActive,
	}

	if _, err := repo.CreateRecord(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist financial record")
	}

	s.metrics.IncSettlement()
	return nil
}

// ToggleRecordStatus flips a record between active and archived. Archival is
// the only business-level reversal of a settlement.
func (s *service) ToggleRecordStatus(ctx context.Context, recordID uuid.UUID) (*models.FinancialRecord, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}

	var toggled *models.FinancialRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindRecordByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "financial record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load financial record")
		}

		next := enums.FinancialRecordStatusArchived
		if record.Status == enums.FinancialRecordStatusArchived {
			next = enums.FinancialRecordStatusActive
		}
		if err := repo.UpdateRecordStatus(ctx, record.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update record status")
		}
		record.Status = next
		toggled = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

func (s *service) ListRecords(ctx context.Context, params pagination.Params, filters ListFilters) (*RecordList, error) {
	list, err := s.repo.ListRecords(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list financial records")
	}
	return list, nil
}
