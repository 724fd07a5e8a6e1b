package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pawcare/partner-api/internal/domain/record"
)

func statusEvent(kind record.Kind, to record.Status) record.StatusChangedEvent {
	return record.StatusChangedEvent{
		RecordID:   uuid.New(),
		PartnerID:  uuid.New(),
		CustomerID: uuid.New(),
		Kind:       kind,
		From:       record.StatusScheduled,
		To:         to,
		OccurredAt: time.Now(),
	}
}

func staticLookup(recipient string, data map[string]string) RecipientLookup {
	return func(context.Context, record.StatusChangedEvent) (string, map[string]string, error) {
		return recipient, data, nil
	}
}

func TestTemplateFor(t *testing.T) {
	cases := []struct {
		kind record.Kind
		to   record.Status
		want string
	}{
		{record.KindAppointment, record.StatusCompleted, "visit-completed"},
		{record.KindAppointment, record.StatusRescheduled, "visit-rescheduled"},
		{record.KindAppointment, record.StatusCancelled, "record-cancelled"},
		{record.KindOrder, record.StatusReturned, "record-cancelled"},
		{record.KindOrder, record.StatusShipped, "order-status"},
		{record.KindOrder, record.StatusDelivered, "order-status"},
		{record.KindAppointment, record.StatusInProgress, ""},
	}
	for _, tc := range cases {
		if got := templateFor(statusEvent(tc.kind, tc.to)); got != tc.want {
			t.Errorf("templateFor(%s, %s) = %q, want %q", tc.kind, tc.to, got, tc.want)
		}
	}
}

func TestStatusNotifier_SendsOrderUpdate(t *testing.T) {
	sms := &MockSMSSender{}
	mgr := NewManager(&MockEmailSender{}, sms, NewTemplateEngine())
	n := NewStatusNotifier(mgr, staticLookup("+15550100", map[string]string{
		"customer_name": "Dana",
		"partner_name":  "Happy Paws Pharmacy",
	}), zerolog.Nop())

	if err := n.RecordStatusChanged(context.Background(), statusEvent(record.KindOrder, record.StatusShipped)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := sms.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one sms, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Body, "shipped") {
		t.Errorf("status should render into the body: %q", calls[0].Body)
	}
}

func TestStatusNotifier_SilentStatusSendsNothing(t *testing.T) {
	sms := &MockSMSSender{}
	mgr := NewManager(&MockEmailSender{}, sms, NewTemplateEngine())
	n := NewStatusNotifier(mgr, staticLookup("+15550100", nil), zerolog.Nop())

	if err := n.RecordStatusChanged(context.Background(), statusEvent(record.KindAppointment, record.StatusInProgress)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sms.Calls()) != 0 {
		t.Error("in_progress must not notify the customer")
	}
}

func TestStatusNotifier_SwallowsLookupFailure(t *testing.T) {
	mgr := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())
	lookup := func(context.Context, record.StatusChangedEvent) (string, map[string]string, error) {
		return "", nil, errors.New("customer service down")
	}
	n := NewStatusNotifier(mgr, lookup, zerolog.Nop())

	if err := n.RecordStatusChanged(context.Background(), statusEvent(record.KindAppointment, record.StatusCompleted)); err != nil {
		t.Fatalf("lookup failures must be swallowed, got %v", err)
	}
}

func TestStatusNotifier_SwallowsDeliveryFailure(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())
	n := NewStatusNotifier(mgr, staticLookup("dana@example.com", nil), zerolog.Nop())

	if err := n.RecordStatusChanged(context.Background(), statusEvent(record.KindAppointment, record.StatusCompleted)); err != nil {
		t.Fatalf("delivery failures must be swallowed, got %v", err)
	}
	if len(email.Calls()) != 1 {
		t.Error("the send should still have been attempted")
	}
}
