package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID      `json:"id"`
	Username      string         `json:"username"`
	FullName      string         `json:"full_name"`
	Phone         *string        `json:"phone,omitempty"`
	Role          enums.UserRole `json:"role"`
	IsActive      bool           `json:"is_active"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	PickupPointID *uuid.UUID     `json:"pickup_point_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username      string
	PasswordHash  string
	FullName      string
	Phone         *string
	Role          enums.UserRole
	PickupPointID *uuid.UUID
	IsActive      *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Role:          u.Role,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		PickupPointID: u.PickupPointID,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Username:      c.Username,
		PasswordHash:  c.PasswordHash,
		FullName:      c.FullName,
		Phone:         c.Phone,
		Role:          c.Role,
		IsActive:      isActive,
		PickupPointID: c.PickupPointID,
	}
}
