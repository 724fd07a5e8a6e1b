package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists partner availability slots.
type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByPartnerAndDate returns the slots for one calendar day, ordered by
	// start time. Fetched fresh per date: callers never cache across dates.
	ListByPartnerAndDate(ctx context.Context, partnerID uuid.UUID, date time.Time) ([]*Slot, error)
	// FindByStart locates the slot starting at the given instant on a date.
	FindByStart(ctx context.Context, partnerID uuid.UUID, date, start time.Time) (*Slot, error)
}
