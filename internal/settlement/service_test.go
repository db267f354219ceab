package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/pagination"
)

type fakeRepo struct {
	claims        map[uuid.UUID]bool
	records       []models.FinancialRecord
	recordsByID   map[uuid.UUID]*models.FinancialRecord
	statusUpdates []enums.FinancialRecordStatus
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		claims:      map[uuid.UUID]bool{},
		recordsByID: map[uuid.UUID]*models.FinancialRecord{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) MarkOrderProcessed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if f.claims[orderID] {
		return false, nil
	}
	f.claims[orderID] = true
	return true, nil
}

func (f *fakeRepo) CreateRecord(ctx context.Context, record *models.FinancialRecord) (*models.FinancialRecord, error) {
	record.ID = uuid.New()
	f.records = append(f.records, *record)
	f.recordsByID[record.ID] = record
	return record, nil
}

func (f *fakeRepo) FindRecordByID(ctx context.Context, id uuid.UUID) (*models.FinancialRecord, error) {
	record, ok := f.recordsByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeRepo) FindRecordByOrderID(ctx context.Context, orderID uuid.UUID) (*models.FinancialRecord, error) {
	for i := range f.records {
		if f.records[i].OrderID == orderID {
			clone := f.records[i]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateRecordStatus(ctx context.Context, id uuid.UUID, status enums.FinancialRecordStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	if record, ok := f.recordsByID[id]; ok {
		record.Status = status
	}
	return nil
}

func (f *fakeRepo) ListRecords(ctx context.Context, params pagination.Params, filters ListFilters) (*RecordList, error) {
	return &RecordList{Records: f.records}, nil
}

type fakeTx struct{}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTx{}, nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func deliveredOrder() *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		ShortCode: "SET001",
		Status:    enums.OrderStatusDelivered,
		Items: []models.OrderItem{
			{Quantity: 2, UnitPriceAmount: 3000, CapitalAmount: 2000},
			{Quantity: 1, UnitPriceAmount: 4000, CapitalAmount: 2000},
		},
	}
}

func TestSettleSplitsGrossProfit(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	// Sales 10000, capital 6000, gross profit 4000.
	order := deliveredOrder()
	if err := svc.Settle(context.Background(), &gorm.DB{}, order); err != nil {
		t.Fatalf("unexpected settle error: %v", err)
	}

	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	record := repo.records[0]
	if record.SalesAmount != 10000 || record.CapitalAmount != 6000 {
		t.Fatalf("unexpected totals %d/%d", record.SalesAmount, record.CapitalAmount)
	}
	if record.GrossProfitAmount != 4000 {
		t.Fatalf("expected gross profit 4000, got %d", record.GrossProfitAmount)
	}
	if record.SupplierShare != 1200 {
		t.Fatalf("expected supplier share 1200, got %d", record.SupplierShare)
	}
	if record.TaxShare != 720 {
		t.Fatalf("expected tax share 720, got %d", record.TaxShare)
	}
	if record.PartnerShare != 680 {
		t.Fatalf("expected partner share 680, got %d", record.PartnerShare)
	}
	if record.OperatorShare != 1400 {
		t.Fatalf("expected operator share 1400, got %d", record.OperatorShare)
	}
	if record.Status != enums.FinancialRecordStatusActive {
		t.Fatalf("expected active record, got %s", record.Status)
	}
}

func TestSettleSecondDeliveryIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	order := deliveredOrder()
	if err := svc.Settle(context.Background(), &gorm.DB{}, order); err != nil {
		t.Fatalf("first settle: %v", err)
	}

	// Simulate a second delivery arrival on a fresh load of the same order.
	again := deliveredOrder()
	again.ID = order.ID
	if err := svc.Settle(context.Background(), &gorm.DB{}, again); err != nil {
		t.Fatalf("second settle: %v", err)
	}

	if len(repo.records) != 1 {
		t.Fatalf("settlement must run exactly once, got %d records", len(repo.records))
	}
}

func TestSettleSkipsProcessedFlag(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	order := deliveredOrder()
	order.FinancialProcessed = true
	if err := svc.Settle(context.Background(), &gorm.DB{}, order); err != nil {
		t.Fatalf("unexpected settle error: %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatal("processed orders must not settle again")
	}
}

func TestSettleNegativeMarginClampsToZero(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	order := &models.Order{
		ID:        uuid.New(),
		ShortCode: "SET002",
		Items: []models.OrderItem{
			{Quantity: 1, UnitPriceAmount: 1000, CapitalAmount: 5000},
		},
	}
	if err := svc.Settle(context.Background(), &gorm.DB{}, order); err != nil {
		t.Fatalf("unexpected settle error: %v", err)
	}

	record := repo.records[0]
	if record.GrossProfitAmount != 0 {
		t.Fatalf("loss-making orders settle at zero profit, got %d", record.GrossProfitAmount)
	}
	if record.SupplierShare != 0 || record.OperatorShare != 0 {
		t.Fatal("zero profit means zero shares")
	}
}

func TestSettleRequiresTransaction(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	err := svc.Settle(context.Background(), nil, deliveredOrder())
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestToggleRecordStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)

	order := deliveredOrder()
	if err := svc.Settle(context.Background(), &gorm.DB{}, order); err != nil {
		t.Fatalf("settle: %v", err)
	}
	recordID := repo.records[0].ID

	archived, err := svc.ToggleRecordStatus(context.Background(), recordID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if archived.Status != enums.FinancialRecordStatusArchived {
		t.Fatalf("expected archived, got %s", archived.Status)
	}

	active, err := svc.ToggleRecordStatus(context.Background(), recordID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if active.Status != enums.FinancialRecordStatusActive {
		t.Fatalf("expected active, got %s", active.Status)
	}
}

func TestToggleMissingRecord(t *testing.T) {
	svc := newTestService(t, newFakeRepo())

	_, err := svc.ToggleRecordStatus(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
