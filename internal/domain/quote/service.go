package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultValidity is how long a quoted response stays accepted-able when the
// pharmacy does not set an explicit window.
const DefaultValidity = 48 * time.Hour

// Service handles the pharmacy side of the quote flow.
type Service struct {
	quotes Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(quotes Repository, logger zerolog.Logger) *Service {
	return &Service{quotes: quotes, logger: logger, now: time.Now}
}

// CreateInput is the inbound customer request.
type CreateInput struct {
	PartnerID    uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	PetName      string
	Items        []RequestedItem
}

// Create registers a new open quote request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Request, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("at least one requested item is required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.MedicineName) == "" {
			return nil, fmt.Errorf("item %d: medicine name is required", i+1)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: quantity must be positive", i+1)
		}
	}
	q := &Request{
		ID:             uuid.New(),
		PartnerID:      in.PartnerID,
		CustomerID:     in.CustomerID,
		CustomerName:   in.CustomerName,
		PetName:        in.PetName,
		Status:         StatusOpen,
		RequestedItems: in.Items,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get loads a request owned by the partner, lazily expiring stale quotes.
func (s *Service) Get(ctx context.Context, partnerID, id uuid.UUID) (*Request, error) {
	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.PartnerID != partnerID {
		return nil, ErrNotFound
	}
	return s.expireIfStale(ctx, q), nil
}

// List returns the partner's quote requests, newest first.
func (s *Service) List(ctx context.Context, partnerID uuid.UUID, status Status, limit, offset int) ([]*Request, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("invalid status filter %q", status)
	}
	qs, total, err := s.quotes.ListByPartner(ctx, partnerID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i, q := range qs {
		qs[i] = s.expireIfStale(ctx, q)
	}
	return qs, total, nil
}

// RespondInput is the pharmacy's priced answer.
type RespondInput struct {
	Lines      []QuotedLine
	ValidUntil *time.Time
}

// Respond attaches prices to an open request and moves it to quoted.
func (s *Service) Respond(ctx context.Context, partnerID, id uuid.UUID, in RespondInput) (*Request, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("at least one quoted line is required")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.MedicineName) == "" {
			return nil, fmt.Errorf("line %d: medicine name is required", i+1)
		}
		if l.Available && l.UnitPrice <= 0 {
			return nil, fmt.Errorf("line %d: unit price must be positive for available items", i+1)
		}
	}

	q, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusOpen {
		return nil, fmt.Errorf("cannot respond to a %s request", q.Status)
	}

	var total float64
	for _, l := range in.Lines {
		if l.Available {
			total += l.UnitPrice * float64(l.Quantity)
		}
	}
	validUntil := in.ValidUntil
	if validUntil == nil {
		t := s.now().Add(DefaultValidity)
		validUntil = &t
	} else if !validUntil.After(s.now()) {
		return nil, fmt.Errorf("valid_until must be in the future")
	}

	q.Status = StatusQuoted
	q.QuotedLines = in.Lines
	q.Total = total
	q.ValidUntil = validUntil
	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Decline closes an open request without pricing it.
func (s *Service) Decline(ctx context.Context, partnerID, id uuid.UUID, reason string) (*Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("decline reason is required")
	}
	q, err := s.Get(ctx, partnerID, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusOpen {
		return nil, fmt.Errorf("cannot decline a %s request", q.Status)
	}
	q.Status = StatusDeclined
	q.DeclineReason = reason
	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// expireIfStale flips a quoted request past its validity window to expired.
// The write is best effort; readers see the expired status either way.
func (s *Service) expireIfStale(ctx context.Context, q *Request) *Request {
	if !q.Expired(s.now()) {
		return q
	}
	q.Status = StatusExpired
	if err := s.quotes.Update(ctx, q); err != nil {
		s.logger.Warn().Err(err).Str("quote_id", q.ID.String()).Msg("failed to persist quote expiry")
	}
	return q
}
