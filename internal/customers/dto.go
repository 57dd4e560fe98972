package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// CreateCustomerDTO carries the fields needed to insert a customer row.
type CreateCustomerDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         enums.Role
}

// ToModel maps the DTO onto a persistable model.
func (d CreateCustomerDTO) ToModel() *models.Customer {
	role := d.Role
	if !role.IsValid() {
		role = enums.RoleCustomer
	}
	return &models.Customer{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Phone:        d.Phone,
		Role:         role,
		IsActive:     true,
	}
}

// CustomerDTO is the public projection returned by the API.
type CustomerDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone,omitempty"`
	Role        enums.Role `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel converts a customer row into its public projection.
func FromModel(m *models.Customer) *CustomerDTO {
	if m == nil {
		return nil
	}
	return &CustomerDTO{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		Phone:       m.Phone,
		Role:        m.Role,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
