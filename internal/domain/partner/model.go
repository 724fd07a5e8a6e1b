package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawcare/partner-api/internal/platform/auth"
)

// Partner is a service provider on the marketplace: a veterinary clinic,
// groomer, pharmacy, or essentials store.
type Partner struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	Name         string           `db:"name" json:"name"`
	Email        string           `db:"email" json:"email"`
	Phone        string           `db:"phone" json:"phone"`
	PasswordHash string           `db:"password_hash" json:"-"`
	ServiceType  auth.ServiceType `db:"service_type" json:"service_type"`
	Address      string           `db:"address" json:"address"`
	Active       bool             `db:"active" json:"active"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Phone       string           `json:"phone"`
	Password    string           `json:"password"`
	ServiceType auth.ServiceType `json:"service_type"`
	Address     string           `json:"address"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}
