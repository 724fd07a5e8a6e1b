package record

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two lifecycle variants a partner operates on.
// Veterinary and grooming partners work appointments; pharmacy and
// essentials partners work orders.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindOrder       Kind = "order"
)

// Status is the lifecycle status of a record. Appointment-kind records move
// through the OTP/documentation flow; order-kind records move through the
// delivery chain.
type Status string

const (
	// Shared / appointment statuses.
	StatusPending     Status = "pending"
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"

	// Order statuses.
	StatusPlaced         Status = "placed"
	StatusProcessing     Status = "processing"
	StatusPacked         Status = "packed"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusDelivered      Status = "delivered"
	StatusReturned       Status = "returned"
)

// terminalStatuses admit no further transitions.
var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusDelivered: true,
	StatusCancelled: true,
	StatusReturned:  true,
	StatusNoShow:    true,
}

// cancellableStatuses is the "pending-like" set: anything not yet terminal.
var cancellableStatuses = map[Status]bool{
	StatusPending:        true,
	StatusScheduled:      true,
	StatusConfirmed:      true,
	StatusRescheduled:    true,
	StatusInProgress:     true,
	StatusPlaced:         true,
	StatusProcessing:     true,
	StatusPacked:         true,
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusReadyForPickup: true,
}

// otpEligibleStatuses are the appointment statuses from which OTP verification
// may start the visit.
var otpEligibleStatuses = map[Status]bool{
	StatusPending:     true,
	StatusScheduled:   true,
	StatusConfirmed:   true,
	StatusRescheduled: true,
}

// orderChain is the forward-only delivery progression for order-kind records.
var orderChain = map[Status]int{
	StatusPlaced:         0,
	StatusProcessing:     1,
	StatusPacked:         2,
	StatusShipped:        3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool { return terminalStatuses[s] }

// IsValid reports whether s is a known lifecycle status.
func (s Status) IsValid() bool {
	return cancellableStatuses[s] || terminalStatuses[s]
}

// CancelledBy identifies who requested a cancellation.
type CancelledBy string

const (
	CancelledByCustomer CancelledBy = "customer"
	CancelledByProvider CancelledBy = "provider"
	CancelledBySystem   CancelledBy = "system"
)

// PrescriptionLine is one drug entry in the clinical documentation.
type PrescriptionLine struct {
	DrugName  string `db:"drug_name" json:"drug_name"`
	Dosage    string `db:"dosage" json:"dosage"`
	Frequency string `db:"frequency" json:"frequency"`
	Duration  string `db:"duration" json:"duration"`
}

// IsBlank reports whether every field is empty after trimming. Blank lines are
// dropped at submission time, not at entry time.
func (l PrescriptionLine) IsBlank() bool {
	return strings.TrimSpace(l.DrugName) == "" &&
		strings.TrimSpace(l.Dosage) == "" &&
		strings.TrimSpace(l.Frequency) == "" &&
		strings.TrimSpace(l.Duration) == ""
}

// FilterPrescriptionLines drops lines with all fields blank, preserving order.
func FilterPrescriptionLines(lines []PrescriptionLine) []PrescriptionLine {
	var kept []PrescriptionLine
	for _, l := range lines {
		if !l.IsBlank() {
			kept = append(kept, l)
		}
	}
	return kept
}

// FollowUp is a follow-up visit scheduled as a side effect of completion.
type FollowUp struct {
	Date          time.Time `db:"date" json:"date"`
	TimeSlotStart time.Time `db:"time_slot_start" json:"time_slot_start"`
}

// Cancellation records why and by whom a record was cancelled or returned.
type Cancellation struct {
	Reason      string      `db:"reason" json:"reason"`
	CancelledBy CancelledBy `db:"cancelled_by" json:"cancelled_by"`
}

// Record is one appointment or order owned by a partner.
type Record struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	Kind              Kind               `db:"kind" json:"kind"`
	Status            Status             `db:"status" json:"status"`
	PartnerID         uuid.UUID          `db:"partner_id" json:"partner_id"`
	CustomerID        uuid.UUID          `db:"customer_id" json:"customer_id"`
	PetName           string             `db:"pet_name" json:"pet_name"`
	ServiceName       string             `db:"service_name" json:"service_name"`
	ScheduledDate     time.Time          `db:"scheduled_date" json:"scheduled_date"`
	ScheduledStart    time.Time          `db:"scheduled_start" json:"scheduled_start"`
	ClinicalNotes     *string            `db:"clinical_notes" json:"clinical_notes,omitempty"`
	PrescriptionLines []PrescriptionLine `db:"-" json:"prescription_lines,omitempty"`
	FollowUp          *FollowUp          `db:"-" json:"follow_up,omitempty"`
	Cancellation      *Cancellation      `db:"-" json:"cancellation,omitempty"`
	StatusNote        *string            `db:"status_note" json:"status_note,omitempty"`
	RescheduleCount   int                `db:"reschedule_count" json:"reschedule_count"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// OTPRequired reports whether the partner must verify the customer's code
// before working this record: appointment kind, not yet started, not terminal.
func (r *Record) OTPRequired() bool {
	return r.Kind == KindAppointment && otpEligibleStatuses[r.Status]
}

// CanCancel reports whether the record is still in the pending-like set.
func (r *Record) CanCancel() bool { return cancellableStatuses[r.Status] }

// CanReschedule reports whether the reschedule action may be offered:
// appointment kind, never rescheduled before, non-terminal pending-like status.
func (r *Record) CanReschedule() bool {
	return r.Kind == KindAppointment && r.RescheduleCount < 1 && cancellableStatuses[r.Status]
}

// KindForServiceType maps a partner service type to the record kind it works.
func KindForServiceType(serviceType string) Kind {
	switch serviceType {
	case "pharmacy", "essentials":
		return KindOrder
	default:
		return KindAppointment
	}
}
