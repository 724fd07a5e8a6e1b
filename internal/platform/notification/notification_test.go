package notification

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateEngine_Render(t *testing.T) {
	e := NewTemplateEngine()

	subject, body, channel, err := e.Render("visit-completed", map[string]string{
		"customer_name": "Dana",
		"pet_name":      "Biscuit",
		"service":       "grooming",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel != ChannelEmail {
		t.Errorf("expected email channel, got %s", channel)
	}
	if !strings.Contains(subject, "Biscuit") {
		t.Errorf("subject not rendered: %q", subject)
	}
	if !strings.Contains(body, "Dana") || strings.Contains(body, "{{") {
		t.Errorf("body not fully rendered: %q", body)
	}
}

func TestTemplateEngine_MissingDataLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()

	_, body, _, err := e.Render("visit-otp", map[string]string{"code": "1234"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "1234") {
		t.Errorf("code not rendered: %q", body)
	}
	if !strings.Contains(body, "{{customer_name}}") {
		t.Errorf("missing keys should stay as placeholders: %q", body)
	}
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

func TestManager_SendEmail(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	m := NewManager(email, sms, NewTemplateEngine())

	n := &Notice{Channel: ChannelEmail, Recipient: "dana@example.com", Subject: "hi", Body: "hello"}
	if err := m.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("notice should be marked sent: %+v", n)
	}
	if calls := email.Calls(); len(calls) != 1 || calls[0].To != "dana@example.com" {
		t.Errorf("unexpected email calls: %+v", calls)
	}
	if len(sms.Calls()) != 0 {
		t.Error("sms sender should be untouched")
	}
}

func TestManager_FailedSendStoredForRetry(t *testing.T) {
	sms := &MockSMSSender{ShouldFail: true}
	m := NewManager(&MockEmailSender{}, sms, NewTemplateEngine())

	n := &Notice{Channel: ChannelSMS, Recipient: "+15550100", Body: "hello"}
	if err := m.Send(context.Background(), n); err == nil {
		t.Fatal("expected the send to fail")
	}
	stored, err := m.Get(n.ID)
	if err != nil {
		t.Fatalf("failed notice should be stored: %v", err)
	}
	if stored.Status != "failed" || stored.Error == "" {
		t.Errorf("notice should record the failure: %+v", stored)
	}

	sms.ShouldFail = false
	if err := m.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	stored, _ = m.Get(n.ID)
	if stored.Status != "sent" || stored.Error != "" {
		t.Errorf("retried notice should be sent: %+v", stored)
	}
}

func TestManager_RetryRejectsSentNotice(t *testing.T) {
	m := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())

	n := &Notice{Channel: ChannelSMS, Recipient: "+15550100", Body: "hello"}
	if err := m.Send(context.Background(), n); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := m.Retry(context.Background(), n.ID); err == nil {
		t.Fatal("retrying a sent notice must fail")
	}
}

func TestManager_SendFromTemplate(t *testing.T) {
	sms := &MockSMSSender{}
	m := NewManager(&MockEmailSender{}, sms, NewTemplateEngine())

	n, err := m.SendFromTemplate(context.Background(), "order-status", map[string]string{
		"customer_name": "Dana",
		"partner_name":  "Happy Paws Pharmacy",
		"status":        "shipped",
	}, "+15550100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.TemplateID != "order-status" {
		t.Errorf("template id not recorded: %+v", n)
	}
	calls := sms.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Body, "shipped") {
		t.Errorf("unexpected sms calls: %+v", calls)
	}
}

func TestManager_ListByRecipient(t *testing.T) {
	m := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())

	for i := 0; i < 3; i++ {
		n := &Notice{Channel: ChannelSMS, Recipient: "+15550100", Body: "hello"}
		if err := m.Send(context.Background(), n); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	other := &Notice{Channel: ChannelSMS, Recipient: "+15550199", Body: "hello"}
	if err := m.Send(context.Background(), other); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := m.ListByRecipient("+15550100", 10); len(got) != 3 {
		t.Errorf("expected 3 notices, got %d", len(got))
	}
	if got := m.ListByRecipient("+15550100", 2); len(got) != 2 {
		t.Errorf("limit not applied, got %d", len(got))
	}
}
