package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Lookup failures shared by all repository implementations.
var (
	ErrNotFound       = errors.New("partner: not found")
	ErrEmailTaken     = errors.New("partner: email already registered")
	ErrBadCredentials = errors.New("partner: invalid email or password")
)

// Repository persists partner accounts.
type Repository interface {
	Create(ctx context.Context, p *Partner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	GetByEmail(ctx context.Context, email string) (*Partner, error)
	Update(ctx context.Context, p *Partner) error
}
