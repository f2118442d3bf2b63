package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	ContactMethodWhatsApp = "whatsapp"
	ContactMethodEmail    = "email"
	ContactMethodPhone    = "phone"
)

const (
	PaymentMethodStripe = "stripe"
	PaymentMethodManual = "manual"
	PaymentMethodOther  = "other"
)

// PurchaseStatuses lists every valid lifecycle state, in no particular order.
var PurchaseStatuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func IsValidStatus(status string) bool {
	for _, s := range PurchaseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Purchase is one registration submission. UniqueID is the public handle for
// status lookups and payment redirects; the row's primary key never leaves
// the server.
type Purchase struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UniqueID string    `gorm:"uniqueIndex;not null" json:"uniqueId"`

	Email         string `gorm:"not null;index" json:"email"`
	Username      string `gorm:"not null" json:"username"`
	ContactMethod string `gorm:"not null;default:'whatsapp'" json:"contactMethod"`
	ContactInfo   string `gorm:"not null" json:"contactInfo"`

	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticketId"`
	Ticket   *Ticket   `json:"ticket,omitempty"`
	// EventID is denormalized from the ticket at creation time so reports
	// stay stable even if the ticket is later reassigned or edited.
	EventID uuid.UUID `gorm:"type:uuid;not null;index" json:"eventId"`
	Event   *Event    `json:"event,omitempty"`

	Quantity   int    `gorm:"not null;default:1" json:"quantity"`
	TotalPrice int    `gorm:"not null" json:"totalPrice"`
	Currency   string `gorm:"not null;default:'HKD'" json:"currency"`

	Status string `gorm:"not null;default:'pending';index" json:"status"`

	ConfirmationSent   bool       `gorm:"not null;default:false" json:"confirmationSent"`
	ConfirmationMethod string     `gorm:"not null;default:'email'" json:"confirmationMethod"`
	ConfirmationSentAt *time.Time `json:"confirmationSentAt,omitempty"`

	Notes string `json:"notes"`

	StripePaymentLinkID   *string `json:"stripePaymentLinkId,omitempty"`
	StripePaymentLinkURL  *string `json:"stripePaymentLinkUrl,omitempty"`
	StripeSessionID       *string `gorm:"index" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID *string `json:"stripePaymentIntentId,omitempty"`
	PaymentMethod         string  `gorm:"not null;default:'manual'" json:"paymentMethod"`

	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (purchase *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	if purchase.UniqueID == "" {
		purchase.UniqueID, err = NewUniqueID()
	}
	return
}

// NewUniqueID returns 128 bits of crypto/rand entropy as 32 hex characters.
// The token doubles as the access credential for the public status page, so
// it must not be guessable or derivable from the primary key.
func NewUniqueID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// MarkConfirmationSent records that a confirmation went out. Safe to call
// repeatedly; only the timestamp moves.
func (purchase *Purchase) MarkConfirmationSent(tx *gorm.DB, method string) error {
	now := time.Now()
	purchase.ConfirmationSent = true
	purchase.ConfirmationMethod = method
	purchase.ConfirmationSentAt = &now
	return tx.Save(purchase).Error
}

func (purchase *Purchase) IsConfirmed() bool {
	return purchase.Status == StatusConfirmed
}

func (purchase *Purchase) IsPending() bool {
	return purchase.Status == StatusPending
}
