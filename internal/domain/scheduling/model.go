package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one bookable window in a partner's day.
type Slot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PartnerID uuid.UUID `db:"partner_id" json:"partner_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Booked    int       `db:"booked" json:"booked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Open reports whether the slot still has capacity.
func (s *Slot) Open() bool { return s.Booked < s.Capacity }

// sameDay reports whether a and b fall on the same calendar day in a's location.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// FilterPast drops slots whose start time has already passed, but only when
// the requested date is the current calendar day. Slots on future days are
// never excluded, whatever their clock time.
func FilterPast(slots []*Slot, date, now time.Time) []*Slot {
	if !sameDay(date, now) {
		return slots
	}
	var kept []*Slot
	for _, s := range slots {
		if s.StartTime.After(now) {
			kept = append(kept, s)
		}
	}
	return kept
}
