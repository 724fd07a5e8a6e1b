package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service answers availability questions for a partner's calendar.
type Service struct {
	slots Repository
	now   func() time.Time
}

func NewService(slots Repository) *Service {
	return &Service{slots: slots, now: time.Now}
}

// CreateSlot publishes a bookable window.
func (s *Service) CreateSlot(ctx context.Context, sl *Slot) error {
	if sl.PartnerID == uuid.Nil {
		return fmt.Errorf("partner_id is required")
	}
	if sl.Date.IsZero() || sl.StartTime.IsZero() || sl.EndTime.IsZero() {
		return fmt.Errorf("date, start_time and end_time are required")
	}
	if !sl.EndTime.After(sl.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if sl.Capacity <= 0 {
		sl.Capacity = 1
	}
	return s.slots.Create(ctx, sl)
}

// DeleteSlot withdraws a window.
func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Delete(ctx, id)
}

// ListAvailable returns the open slots on a date, with same-day slots whose
// start time has passed excluded. The list is fetched fresh per call.
func (s *Service) ListAvailable(ctx context.Context, partnerID uuid.UUID, date time.Time) ([]*Slot, error) {
	all, err := s.slots.ListByPartnerAndDate(ctx, partnerID, date)
	if err != nil {
		return nil, err
	}
	var open []*Slot
	for _, sl := range all {
		if sl.Open() {
			open = append(open, sl)
		}
	}
	return FilterPast(open, date, s.now()), nil
}

// SlotAvailable reports whether the partner still has an open slot starting
// at the given instant. Implements the lifecycle service's SlotChecker.
func (s *Service) SlotAvailable(ctx context.Context, partnerID uuid.UUID, date, start time.Time) (bool, error) {
	sl, err := s.slots.FindByStart(ctx, partnerID, date, start)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return false, nil
		}
		return false, err
	}
	if !sl.Open() {
		return false, nil
	}
	// A same-day slot that already started is not bookable.
	if len(FilterPast([]*Slot{sl}, date, s.now())) == 0 {
		return false, nil
	}
	return true, nil
}
