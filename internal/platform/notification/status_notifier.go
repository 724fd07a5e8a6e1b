package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pawcare/partner-api/internal/domain/record"
)

// RecipientLookup resolves a customer id to a delivery address (phone or
// email, depending on the template's channel).
type RecipientLookup func(ctx context.Context, e record.StatusChangedEvent) (string, map[string]string, error)

// StatusNotifier turns committed record transitions into customer notices.
// It implements record.EventSink so it can sit next to the outbox sink.
type StatusNotifier struct {
	manager *Manager
	lookup  RecipientLookup
	logger  zerolog.Logger
}

func NewStatusNotifier(manager *Manager, lookup RecipientLookup, logger zerolog.Logger) *StatusNotifier {
	return &StatusNotifier{manager: manager, lookup: lookup, logger: logger}
}

// templateFor maps a transition target to a notice template. Statuses without
// a customer-facing message return "".
func templateFor(e record.StatusChangedEvent) string {
	switch e.To {
	case record.StatusCompleted:
		return "visit-completed"
	case record.StatusRescheduled:
		return "visit-rescheduled"
	case record.StatusCancelled, record.StatusReturned:
		return "record-cancelled"
	}
	if e.Kind == record.KindOrder {
		return "order-status"
	}
	return ""
}

// RecordStatusChanged sends the matching notice. Delivery failures are logged
// and swallowed; the transition already committed.
func (n *StatusNotifier) RecordStatusChanged(ctx context.Context, e record.StatusChangedEvent) error {
	tplID := templateFor(e)
	if tplID == "" {
		return nil
	}
	recipient, data, err := n.lookup(ctx, e)
	if err != nil {
		n.logger.Warn().Err(err).Str("record_id", e.RecordID.String()).
			Msg("notice recipient lookup failed")
		return nil
	}
	if data == nil {
		data = map[string]string{}
	}
	data["status"] = string(e.To)
	if _, err := n.manager.SendFromTemplate(ctx, tplID, data, recipient); err != nil {
		n.logger.Warn().Err(err).Str("record_id", e.RecordID.String()).
			Str("template", tplID).Msg("customer notice failed")
	}
	return nil
}
