package auth

import (
	"github.com/grandmarche/backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint. Customers
// use their phone number as username.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	ClientIP string `json:"-"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest enrolls a new customer account keyed on their phone number.
type RegisterRequest struct {
	Phone    string `json:"phone" validate:"required,min=8"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

// RegisterResponse returns the created account and a ready-to-use token.
type RegisterResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
