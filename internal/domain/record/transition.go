package record

import (
	"strings"
	"time"
)

// NotesSoftCap is the advisory length limit for clinical notes. Longer notes
// are accepted; callers log a warning instead of rejecting.
const NotesSoftCap = 500

// Event is a lifecycle transition request. Apply validates the guard and
// returns the updated record without touching any store, so transitions are
// unit-testable in isolation from persistence.
type Event interface {
	name() string
}

// StartVisit moves an appointment into in_progress after OTP verification.
// The code itself is checked by the service against the OTP store; the event
// carries only the state change.
type StartVisit struct{}

func (StartVisit) name() string { return "start_visit" }

// Complete finishes an in_progress appointment, attaching the clinical
// documentation captured during the visit.
type Complete struct {
	Notes    string
	Lines    []PrescriptionLine
	FollowUp *FollowUp
}

func (Complete) name() string { return "complete" }

// Cancel aborts a non-terminal record with a mandatory reason.
type Cancel struct {
	Reason string
	By     CancelledBy
}

func (Cancel) name() string { return "cancel" }

// Reschedule moves an appointment to a new date and slot. Single use per
// record; the record keeps its id.
type Reschedule struct {
	Date  time.Time
	Start time.Time
}

func (Reschedule) name() string { return "reschedule" }

// OrderStatusUpdate advances an order along the delivery chain.
type OrderStatusUpdate struct {
	Next Status
	Note string
}

func (OrderStatusUpdate) name() string { return "order_status_update" }

// Apply validates ev against rec's current state and returns the updated
// record. It is a pure function: rec is copied, never mutated, and no I/O
// happens here. Guard failures return a coded error and the zero Record.
func Apply(rec Record, ev Event, now time.Time) (Record, error) {
	if rec.Status.IsTerminal() {
		return Record{}, NewError(CodeTransitionRejected,
			"record %s is %s and cannot be modified", rec.ID, rec.Status)
	}

	switch e := ev.(type) {
	case StartVisit:
		return applyStartVisit(rec, now)
	case Complete:
		return applyComplete(rec, e, now)
	case Cancel:
		return applyCancel(rec, e, now)
	case Reschedule:
		return applyReschedule(rec, e, now)
	case OrderStatusUpdate:
		return applyOrderStatus(rec, e, now)
	default:
		return Record{}, NewError(CodeTransitionRejected, "unknown event %q", ev.name())
	}
}

func applyStartVisit(rec Record, now time.Time) (Record, error) {
	if rec.Kind != KindAppointment {
		return Record{}, NewError(CodeTransitionRejected,
			"order records do not use OTP verification")
	}
	if !otpEligibleStatuses[rec.Status] {
		return Record{}, NewError(CodeTransitionRejected,
			"cannot start a visit from status %s", rec.Status)
	}
	rec.Status = StatusInProgress
	rec.UpdatedAt = now
	return rec, nil
}

func applyComplete(rec Record, e Complete, now time.Time) (Record, error) {
	if rec.Kind != KindAppointment {
		return Record{}, NewError(CodeTransitionRejected,
			"orders complete via a status update to delivered")
	}
	if rec.Status != StatusInProgress {
		return Record{}, NewError(CodeTransitionRejected,
			"documentation can only be submitted while in progress, not %s", rec.Status)
	}
	if e.FollowUp != nil {
		if e.FollowUp.Date.IsZero() || e.FollowUp.TimeSlotStart.IsZero() {
			return Record{}, NewError(CodeValidation,
				"follow-up requires both a date and a time slot")
		}
	}

	rec.Status = StatusCompleted
	if notes := strings.TrimSpace(e.Notes); notes != "" {
		rec.ClinicalNotes = &notes
	}
	rec.PrescriptionLines = FilterPrescriptionLines(e.Lines)
	rec.FollowUp = e.FollowUp
	rec.UpdatedAt = now
	return rec, nil
}

func applyCancel(rec Record, e Cancel, now time.Time) (Record, error) {
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		return Record{}, NewError(CodeValidation, "cancellation reason is required")
	}
	if !rec.CanCancel() {
		return Record{}, NewError(CodeTransitionRejected,
			"cannot cancel a record in status %s", rec.Status)
	}
	by := e.By
	if by == "" {
		by = CancelledByProvider
	}
	rec.Status = StatusCancelled
	rec.Cancellation = &Cancellation{Reason: reason, CancelledBy: by}
	rec.UpdatedAt = now
	return rec, nil
}

func applyReschedule(rec Record, e Reschedule, now time.Time) (Record, error) {
	if rec.Kind != KindAppointment {
		return Record{}, NewError(CodeTransitionRejected, "orders cannot be rescheduled")
	}
	if rec.RescheduleCount >= 1 {
		return Record{}, NewError(CodeTransitionRejected,
			"record %s has already been rescheduled once", rec.ID)
	}
	if !cancellableStatuses[rec.Status] {
		return Record{}, NewError(CodeTransitionRejected,
			"cannot reschedule a record in status %s", rec.Status)
	}
	if e.Date.IsZero() || e.Start.IsZero() {
		return Record{}, NewError(CodeValidation, "reschedule requires a date and a time slot")
	}
	rec.ScheduledDate = e.Date
	rec.ScheduledStart = e.Start
	rec.RescheduleCount++
	rec.Status = StatusRescheduled
	rec.UpdatedAt = now
	return rec, nil
}

func applyOrderStatus(rec Record, e OrderStatusUpdate, now time.Time) (Record, error) {
	if rec.Kind != KindOrder {
		return Record{}, NewError(CodeTransitionRejected,
			"appointment records do not use order status updates")
	}
	if !e.Next.IsValid() {
		return Record{}, NewError(CodeValidation, "unknown order status %q", e.Next)
	}

	switch e.Next {
	case StatusDelivered:
		// ready_for_pickup hands over directly; otherwise delivery follows
		// the forward chain.
		if rec.Status != StatusReadyForPickup {
			if _, ok := orderChain[rec.Status]; !ok {
				return Record{}, NewError(CodeTransitionRejected,
					"cannot deliver from status %s", rec.Status)
			}
		}
	case StatusReturned:
		// Delivery refused at the door; delivered itself is terminal.
		if rec.Status != StatusShipped && rec.Status != StatusOutForDelivery {
			return Record{}, NewError(CodeTransitionRejected,
				"cannot mark returned from status %s", rec.Status)
		}
		note := strings.TrimSpace(e.Note)
		if note == "" {
			return Record{}, NewError(CodeValidation, "a return requires a note")
		}
		rec.Cancellation = &Cancellation{Reason: note, CancelledBy: CancelledByCustomer}
	case StatusReadyForPickup:
		if _, ok := orderChain[rec.Status]; !ok {
			return Record{}, NewError(CodeTransitionRejected,
				"cannot mark ready for pickup from status %s", rec.Status)
		}
	default:
		cur, curOK := orderChain[rec.Status]
		next, nextOK := orderChain[e.Next]
		if !curOK || !nextOK || next <= cur {
			return Record{}, NewError(CodeTransitionRejected,
				"order status cannot move from %s to %s", rec.Status, e.Next)
		}
	}

	rec.Status = e.Next
	if note := strings.TrimSpace(e.Note); note != "" && e.Next != StatusReturned {
		rec.StatusNote = &note
	}
	rec.UpdatedAt = now
	return rec, nil
}
