package auth

import "github.com/frostcrinkle/bakery-backend/internal/customers"

// RegisterDTO is the signup payload.
type RegisterDTO struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,len=10"`
}

// LoginDTO is the credential payload.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshDTO rotates a session.
type RefreshDTO struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionDTO is returned on register, login, and refresh.
type SessionDTO struct {
	AccessToken  string                 `json:"access_token"`
	RefreshToken string                 `json:"refresh_token"`
	Customer     *customers.CustomerDTO `json:"customer,omitempty"`
}
