package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  pickup_point_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role enums.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "x",
		FullName:     "Awa Kone",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindCustomerByPhoneSkipsStaff(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	// A partner signed up with a phone-shaped username must not shadow the
	// customer channel.
	phone := "+2250700000040"
	createTestUser(t, db, phone, enums.UserRolePartner)

	_, err := repo.FindCustomerByPhone(context.Background(), phone)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	customerPhone := "+2250700000041"
	customer := createTestUser(t, db, customerPhone, enums.UserRoleCustomer)

	found, err := repo.FindCustomerByPhone(context.Background(), customerPhone)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, found.ID)
}

func TestRepositoryFindByUsernameMatchesAnyRole(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	partner := createTestUser(t, db, "kiosque-cocody", enums.UserRolePartner)

	found, err := repo.FindByUsername(context.Background(), "kiosque-cocody")
	require.NoError(t, err)
	assert.Equal(t, partner.ID, found.ID)
}
