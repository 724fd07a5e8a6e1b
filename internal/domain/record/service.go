package record

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pawcare/partner-api/internal/platform/otp"
)

// SlotChecker answers whether a partner still has the given slot open on a
// date. Implemented by the scheduling service.
type SlotChecker interface {
	SlotAvailable(ctx context.Context, partnerID uuid.UUID, date, start time.Time) (bool, error)
}

// StatusChangedEvent describes a committed transition, published after the
// store confirms the write.
type StatusChangedEvent struct {
	RecordID   uuid.UUID `json:"record_id"`
	PartnerID  uuid.UUID `json:"partner_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Kind       Kind      `json:"kind"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives committed transitions. Failures are logged, never
// surfaced to the caller: the transition already happened.
type EventSink interface {
	RecordStatusChanged(ctx context.Context, e StatusChangedEvent) error
}

// Service drives records through their allowed transitions. Preconditions are
// checked before any store mutation; a failed transition leaves both the
// record and the OTP store untouched.
type Service struct {
	records Repository
	otps    otp.Store
	slots   SlotChecker
	events  EventSink
	logger  zerolog.Logger
	otpTTL  time.Duration
	now     func() time.Time
}

// NewService wires the lifecycle service. slots and events may be nil; the
// corresponding checks and notifications are then skipped.
func NewService(records Repository, otps otp.Store, slots SlotChecker, events EventSink, logger zerolog.Logger) *Service {
	return &Service{
		records: records,
		otps:    otps,
		slots:   slots,
		events:  events,
		logger:  logger,
		otpTTL:  otp.DefaultTTL,
		now:     time.Now,
	}
}

// SetOTPTTL overrides the visit code lifetime. Zero or negative values keep
// the default.
func (s *Service) SetOTPTTL(ttl time.Duration) {
	if ttl > 0 {
		s.otpTTL = ttl
	}
}

// BookingInput creates a new record on behalf of a customer booking or order.
type BookingInput struct {
	Kind           Kind
	PartnerID      uuid.UUID
	CustomerID     uuid.UUID
	PetName        string
	ServiceName    string
	ScheduledDate  time.Time
	ScheduledStart time.Time
}

// Create inserts a new scheduled record and, for appointment kind, issues the
// OTP the customer will present at the visit.
func (s *Service) Create(ctx context.Context, in BookingInput) (*Record, error) {
	if in.PartnerID == uuid.Nil || in.CustomerID == uuid.Nil {
		return nil, NewError(CodeValidation, "partner_id and customer_id are required")
	}
	if in.Kind != KindAppointment && in.Kind != KindOrder {
		return nil, NewError(CodeValidation, "kind must be appointment or order")
	}
	status := StatusPending
	if in.Kind == KindOrder {
		status = StatusPlaced
	}
	rec := &Record{
		ID:             uuid.New(),
		Kind:           in.Kind,
		Status:         status,
		PartnerID:      in.PartnerID,
		CustomerID:     in.CustomerID,
		PetName:        in.PetName,
		ServiceName:    in.ServiceName,
		ScheduledDate:  in.ScheduledDate,
		ScheduledStart: in.ScheduledStart,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	if rec.Kind == KindAppointment && s.otps != nil {
		if _, err := s.otps.Issue(ctx, rec.ID, s.otpTTL); err != nil {
			s.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("otp issue failed")
		}
	}
	return rec, nil
}

// Get loads a record owned by the partner.
func (s *Service) Get(ctx context.Context, partnerID, id uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.PartnerID != partnerID {
		return nil, NewError(CodeNotFound, "record not found")
	}
	return rec, nil
}

// List returns the partner's records, newest first.
func (s *Service) List(ctx context.Context, partnerID uuid.UUID, f Filter, limit, offset int) ([]*Record, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, NewError(CodeValidation, "unknown status filter %q", f.Status)
	}
	return s.records.ListByPartner(ctx, partnerID, f, limit, offset)
}

// VerifyOTP checks the customer's code and moves the appointment into
// in_progress. A record already in progress is returned as-is without
// consulting the OTP store, so re-entering the flow is idempotent.
func (s *Service) VerifyOTP(ctx context.Context, partnerID, id uuid.UUID, code string) (*Record, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewError(CodeValidation, "otp code is required")
	}
	rec, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusInProgress {
		return rec, nil
	}

	// Guard before touching the OTP store: a terminal or order record must
	// not consume a code.
	updated, err := Apply(*rec, StartVisit{}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.otps.Verify(ctx, rec.ID, code); err != nil {
		return nil, mapOTPError(err)
	}
	if err := s.records.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.emit(ctx, &updated, rec.Status)
	return &updated, nil
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalid):
		return NewError(CodeInvalidOTP, "the code entered does not match")
	case errors.Is(err, otp.ErrExpired):
		return NewError(CodeOTPExpired, "the code has expired; ask the customer to refresh it")
	case errors.Is(err, otp.ErrNotGenerated):
		return NewError(CodeOTPNotGenerated, "no code has been generated for this booking")
	case errors.Is(err, otp.ErrAlreadyVerified):
		return NewError(CodeOTPVerified, "the code was already verified")
	default:
		return err
	}
}

// CompleteInput carries the documentation submitted when finishing a visit.
type CompleteInput struct {
	Notes             string
	PrescriptionLines []PrescriptionLine
	FollowUp          *FollowUp
}

// Complete finishes an in_progress appointment, committing the clinical
// documentation in the same transition, and optionally schedules a follow-up
// visit as a new record.
func (s *Service) Complete(ctx context.Context, partnerID, id uuid.UUID, in CompleteInput) (*Record, error) {
	if in.FollowUp != nil && (in.FollowUp.Date.IsZero() || in.FollowUp.TimeSlotStart.IsZero()) {
		return nil, NewError(CodeValidation, "follow-up requires both a date and a time slot")
	}
	if len(in.Notes) > NotesSoftCap {
		s.logger.Warn().Str("record_id", id.String()).Int("len", len(in.Notes)).
			Msg("clinical notes exceed soft cap")
	}
	rec, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	if in.FollowUp != nil && s.slots != nil {
		open, err := s.slots.SlotAvailable(ctx, partnerID, in.FollowUp.Date, in.FollowUp.TimeSlotStart)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, NewError(CodeTransitionRejected, "the requested follow-up slot is no longer available")
		}
	}

	updated, err := Apply(*rec, Complete{Notes: in.Notes, Lines: in.PrescriptionLines, FollowUp: in.FollowUp}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, &updated); err != nil {
		return nil, err
	}

	if in.FollowUp != nil {
		if _, err := s.Create(ctx, BookingInput{
			Kind:           KindAppointment,
			PartnerID:      rec.PartnerID,
			CustomerID:     rec.CustomerID,
			PetName:        rec.PetName,
			ServiceName:    rec.ServiceName,
			ScheduledDate:  in.FollowUp.Date,
			ScheduledStart: in.FollowUp.TimeSlotStart,
		}); err != nil {
			// The completion already committed; the partner can book the
			// follow-up manually.
			s.logger.Error().Err(err).Str("record_id", rec.ID.String()).
				Msg("follow-up booking failed")
		}
	}
	s.emit(ctx, &updated, rec.Status)
	return &updated, nil
}

// Cancel aborts a non-terminal record on behalf of the provider.
func (s *Service) Cancel(ctx context.Context, partnerID, id uuid.UUID, reason string) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewError(CodeValidation, "cancellation reason is required")
	}
	rec, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	updated, err := Apply(*rec, Cancel{Reason: reason, By: CancelledByProvider}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.emit(ctx, &updated, rec.Status)
	return &updated, nil
}

// Reschedule moves an appointment to a new date and slot. Allowed once per
// record and only while the record is still pending-like.
func (s *Service) Reschedule(ctx context.Context, partnerID, id uuid.UUID, date, start time.Time) (*Record, error) {
	if date.IsZero() || start.IsZero() {
		return nil, NewError(CodeValidation, "reschedule requires a date and a time slot")
	}
	rec, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	if s.slots != nil {
		open, err := s.slots.SlotAvailable(ctx, partnerID, date, start)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, NewError(CodeTransitionRejected, "the requested slot is no longer available")
		}
	}
	updated, err := Apply(*rec, Reschedule{Date: date, Start: start}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.emit(ctx, &updated, rec.Status)
	return &updated, nil
}

// UpdateOrderStatus advances an order along the delivery chain.
func (s *Service) UpdateOrderStatus(ctx context.Context, partnerID, id uuid.UUID, next Status, note string) (*Record, error) {
	if next == "" {
		return nil, NewError(CodeValidation, "a target status is required")
	}
	rec, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	updated, err := Apply(*rec, OrderStatusUpdate{Next: next, Note: note}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.emit(ctx, &updated, rec.Status)
	return &updated, nil
}

func (s *Service) emit(ctx context.Context, rec *Record, from Status) {
	if s.events == nil {
		return
	}
	evt := StatusChangedEvent{
		RecordID:   rec.ID,
		PartnerID:  rec.PartnerID,
		CustomerID: rec.CustomerID,
		Kind:       rec.Kind,
		From:       from,
		To:         rec.Status,
		OccurredAt: s.now(),
	}
	if err := s.events.RecordStatusChanged(ctx, evt); err != nil {
		s.logger.Error().Err(err).
			Str("record_id", rec.ID.String()).
			Str("to", string(rec.Status)).
			Msg("status event emit failed")
	}
}
