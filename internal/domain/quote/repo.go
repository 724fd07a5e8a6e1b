package quote

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("quote: request not found")

// Repository persists quote requests.
type Repository interface {
	Create(ctx context.Context, q *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	Update(ctx context.Context, q *Request) error
	ListByPartner(ctx context.Context, partnerID uuid.UUID, status Status, limit, offset int) ([]*Request, int, error)
}
