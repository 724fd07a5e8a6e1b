package quote

import (
	"time"

	"github.com/google/uuid"
)

// Status of a quote request from the pharmacy's point of view.
type Status string

const (
	StatusOpen     Status = "open"
	StatusQuoted   Status = "quoted"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusQuoted, StatusAccepted, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// RequestedItem is a medicine the customer asked to be priced.
type RequestedItem struct {
	MedicineName string `json:"medicine_name"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// QuotedLine is the pharmacy's price for one requested item.
type QuotedLine struct {
	MedicineName string  `json:"medicine_name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Available    bool    `json:"available"`
}

// Request is a customer medicine-quote request routed to a pharmacy partner.
type Request struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PartnerID      uuid.UUID       `db:"partner_id" json:"partner_id"`
	CustomerID     uuid.UUID       `db:"customer_id" json:"customer_id"`
	CustomerName   string          `db:"customer_name" json:"customer_name"`
	PetName        string          `db:"pet_name" json:"pet_name"`
	Status         Status          `db:"status" json:"status"`
	RequestedItems []RequestedItem `db:"requested_items" json:"requested_items"`
	QuotedLines    []QuotedLine    `db:"quoted_lines" json:"quoted_lines,omitempty"`
	Total          float64         `db:"total" json:"total"`
	DeclineReason  string          `db:"decline_reason" json:"decline_reason,omitempty"`
	ValidUntil     *time.Time      `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Expired reports whether a quoted response has passed its validity window.
func (r *Request) Expired(now time.Time) bool {
	return r.Status == StatusQuoted && r.ValidUntil != nil && now.After(*r.ValidUntil)
}
