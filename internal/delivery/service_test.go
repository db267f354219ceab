package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/config"
	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
)

type fakeRepo struct {
	zones map[uuid.UUID]*models.DeliveryZone
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{zones: map[uuid.UUID]*models.DeliveryZone{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, zone *models.DeliveryZone) (*models.DeliveryZone, error) {
	zone.ID = uuid.New()
	f.zones[zone.ID] = zone
	return zone, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error) {
	zone, ok := f.zones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *zone
	return &clone, nil
}

func (f *fakeRepo) FindMatch(ctx context.Context, city string, commune *string) (*models.DeliveryZone, error) {
	for _, zone := range f.zones {
		if !zone.IsActive || !strings.EqualFold(zone.City, city) {
			continue
		}
		if commune == nil {
			if zone.Commune == nil {
				clone := *zone
				return &clone, nil
			}
			continue
		}
		if zone.Commune != nil && strings.EqualFold(*zone.Commune, *commune) {
			clone := *zone
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if zone, ok := f.zones[id]; ok {
		if active, isBool := updates["is_active"].(bool); isBool {
			zone.IsActive = active
		}
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context) ([]models.DeliveryZone, error) {
	out := make([]models.DeliveryZone, 0, len(f.zones))
	for _, zone := range f.zones {
		out = append(out, *zone)
	}
	return out, nil
}

type fakeUsers struct {
	users    map[uuid.UUID]*models.User
	byPickup map[uuid.UUID]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUsers) FindPartnerByPickupPoint(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error) {
	user, ok := f.byPickup[pickupPointID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func testConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		MetroCity:       "Abidjan",
		MetroDefaultFee: 1500,
		InteriorFee:     3000,
	}
}

func newTestService(t *testing.T, repo Repository, users userLoader) Service {
	t.Helper()
	svc, err := NewService(repo, users, testConfig())
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestFeePickupIsFree(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeUsers{})

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodPickup, "Abidjan", nil)
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 0 {
		t.Fatalf("pickup must be free, got %d", fee)
	}
}

func TestFeeUsesMatchedZone(t *testing.T) {
	repo := newFakeRepo()
	repo.zones[uuid.New()] = &models.DeliveryZone{
		City:      "Abidjan",
		Commune:   strPtr("Cocody"),
		FeeAmount: 1000,
		IsActive:  true,
	}
	svc := newTestService(t, repo, &fakeUsers{})

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "Abidjan", strPtr("Cocody"))
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 1000 {
		t.Fatalf("expected the zone fee 1000, got %d", fee)
	}
}

func TestFeeMetroFallback(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeUsers{})

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "abidjan", strPtr("Yopougon"))
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 1500 {
		t.Fatalf("unmatched metro communes fall back to 1500, got %d", fee)
	}
}

func TestFeeInteriorFallback(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeUsers{})

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "Bouaké", nil)
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 3000 {
		t.Fatalf("interior cities fall back to 3000, got %d", fee)
	}
}

func TestFeeIgnoresCommuneOutsideMetro(t *testing.T) {
	repo := newFakeRepo()
	repo.zones[uuid.New()] = &models.DeliveryZone{
		City:      "Yamoussoukro",
		FeeAmount: 2000,
		IsActive:  true,
	}
	svc := newTestService(t, repo, &fakeUsers{})

	// Outside the metro the city alone decides; the commune must not block
	// the city-level zone from matching.
	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "Yamoussoukro", strPtr("Centre"))
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 2000 {
		t.Fatalf("expected the city zone fee 2000, got %d", fee)
	}
}

func TestFeeSkipsInactiveZones(t *testing.T) {
	repo := newFakeRepo()
	repo.zones[uuid.New()] = &models.DeliveryZone{
		City:      "Abidjan",
		Commune:   strPtr("Plateau"),
		FeeAmount: 500,
		IsActive:  false,
	}
	svc := newTestService(t, repo, &fakeUsers{})

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "Abidjan", strPtr("Plateau"))
	if err != nil {
		t.Fatalf("unexpected fee error: %v", err)
	}
	if fee != 1500 {
		t.Fatalf("inactive zones do not price, expected fallback 1500, got %d", fee)
	}
}

func TestResolveZonePartner(t *testing.T) {
	partnerID := uuid.New()
	repo := newFakeRepo()
	repo.zones[uuid.New()] = &models.DeliveryZone{
		City:      "Abidjan",
		Commune:   strPtr("Cocody"),
		FeeAmount: 1000,
		PartnerID: &partnerID,
		IsActive:  true,
	}
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		partnerID: {ID: partnerID, Role: enums.UserRolePartner},
	}}
	svc := newTestService(t, repo, users)

	partner, err := svc.ResolveZonePartner(context.Background(), "Abidjan", strPtr("Cocody"))
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if partner.ID != partnerID {
		t.Fatal("wrong partner resolved")
	}
}

func TestResolveZonePartnerWithoutPartner(t *testing.T) {
	repo := newFakeRepo()
	repo.zones[uuid.New()] = &models.DeliveryZone{
		City:      "Abidjan",
		Commune:   strPtr("Cocody"),
		FeeAmount: 1000,
		IsActive:  true,
	}
	svc := newTestService(t, repo, &fakeUsers{})

	_, err := svc.ResolveZonePartner(context.Background(), "Abidjan", strPtr("Cocody"))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("zones without a partner resolve to not found, got %v", err)
	}
}

func TestCreateZoneValidation(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeUsers{})

	if _, err := svc.CreateZone(context.Background(), CreateZoneInput{City: "  "}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateZone(context.Background(), CreateZoneInput{City: "Abidjan", FeeAmount: -1}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetZoneActiveRemovesFromMatching(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeUsers{})

	zone, err := svc.CreateZone(context.Background(), CreateZoneInput{
		City:      "Abidjan",
		Commune:   strPtr("Marcory"),
		FeeAmount: 800,
	})
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}

	if err := svc.SetZoneActive(context.Background(), zone.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	fee, err := svc.Fee(context.Background(), enums.DeliveryMethodHome, "Abidjan", strPtr("Marcory"))
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if fee != 1500 {
		t.Fatalf("deactivated zones must not price, got %d", fee)
	}
}
