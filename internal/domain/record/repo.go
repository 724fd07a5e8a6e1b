package record

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a record listing. Zero values mean "any".
type Filter struct {
	Status Status
	Kind   Kind
}

// Repository persists lifecycle records. Update writes the full mutable state
// (status, documentation, follow-up, cancellation, schedule) in one call so a
// transition lands atomically.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	ListByPartner(ctx context.Context, partnerID uuid.UUID, f Filter, limit, offset int) ([]*Record, int, error)
}
