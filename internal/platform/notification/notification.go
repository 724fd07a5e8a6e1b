// Package notification sends customer-facing notices (Email/SMS) when a
// record changes status, with template rendering, in-memory storage, and
// retry for failed sends.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery channel of a notice.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notice is a single outbound customer message.
type Notice struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EmailSender delivers email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template is a reusable notice body with {{key}} placeholders.
type Template struct {
	ID      string  `json:"id"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// TemplateEngine stores templates and renders them with data. Placeholders
// missing from the data map are left as-is.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "visit-otp",
			Subject: "Your visit code",
			Body:    "Hi {{customer_name}}, share code {{code}} with {{partner_name}} when your {{service}} visit for {{pet_name}} starts.",
			Channel: ChannelSMS,
		},
		{
			ID:      "visit-completed",
			Subject: "Visit summary for {{pet_name}}",
			Body:    "Hi {{customer_name}}, the {{service}} visit for {{pet_name}} is complete. Notes and prescriptions are available in the app.",
			Channel: ChannelEmail,
		},
		{
			ID:      "visit-rescheduled",
			Subject: "Appointment rescheduled",
			Body:    "Hi {{customer_name}}, your {{service}} appointment for {{pet_name}} was moved to {{date}} at {{time}}.",
			Channel: ChannelSMS,
		},
		{
			ID:      "record-cancelled",
			Subject: "Booking cancelled",
			Body:    "Hi {{customer_name}}, your {{service}} booking for {{pet_name}} was cancelled: {{reason}}.",
			Channel: ChannelSMS,
		},
		{
			ID:      "order-status",
			Subject: "Order update",
			Body:    "Hi {{customer_name}}, your order from {{partner_name}} is now {{status}}.",
			Channel: ChannelSMS,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render fills in a template by ID.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, channel Channel, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", templateID)
	}
	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, t.Channel, nil
}

// Manager dispatches notices and keeps them for inspection and retry.
type Manager struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine
	mu        sync.RWMutex
	notices   map[string]*Notice
}

func NewManager(email EmailSender, sms SMSSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		email:     email,
		sms:       sms,
		templates: tpl,
		notices:   make(map[string]*Notice),
	}
}

// Send dispatches n through its channel and records the outcome. Failed
// notices stay stored so Retry can pick them up.
func (m *Manager) Send(ctx context.Context, n *Notice) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	sendErr := m.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.notices[n.ID] = n
	m.mu.Unlock()
	return sendErr
}

func (m *Manager) dispatch(ctx context.Context, n *Notice) error {
	switch n.Channel {
	case ChannelEmail:
		return m.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case ChannelSMS:
		return m.sms.SendSMS(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported channel: %s", n.Channel)
	}
}

// SendFromTemplate renders a template and sends the result.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notice, error) {
	subject, body, channel, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	n := &Notice{
		Channel:    channel,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get returns a stored notice by ID.
func (m *Manager) Get(id string) (*Notice, error) {
	m.mu.RLock()
	n, ok := m.notices[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notice %q not found", id)
	}
	return n, nil
}

// ListByRecipient returns up to limit notices for a recipient.
func (m *Manager) ListByRecipient(recipient string, limit int) []*Notice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Notice
	for _, n := range m.notices {
		if n.Recipient == recipient {
			out = append(out, n)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Retry re-sends a failed notice.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.notices[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notice %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notice %q is not failed (current: %s)", id, n.Status)
	}

	sendErr := m.dispatch(ctx, n)
	m.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()
	return sendErr
}

// MockEmailSender is a test double recording SendEmail calls.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
}

type EmailCall struct {
	To      string
	Subject string
	Body    string
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("email delivery failed")
	}
	return nil
}

func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSMSSender is a test double recording SendSMS calls.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
}

type SMSCall struct {
	To   string
	Body string
}

func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New("sms delivery failed")
	}
	return nil
}

func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
