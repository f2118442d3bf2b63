package notify

import (
	"errors"
	"time"
)

// ErrNotConfigured is returned immediately, without any network I/O, when the
// underlying transport has no credentials. Callers log it and move on; a
// missing notification never fails a registration.
var ErrNotConfigured = errors.New("notification transport not configured")

// Registration is the purchase view handed to notifiers. It is flattened so
// transports never touch gorm models.
type Registration struct {
	Email         string
	Username      string
	ContactMethod string
	ContactInfo   string

	EventTitle string
	EventDate  time.Time
	EventTime  string
	EventVenue string

	TicketName string
	Quantity   int
	TotalPrice int
	Currency   string

	StatusURL      string
	PaymentLinkURL string
}

// Notifier sends best-effort purchase notifications over one transport.
type Notifier interface {
	SendRegistrationConfirmation(r Registration) error
	SendStatusUpdate(r Registration, newStatus string) error
}

// Service bundles the configured transports. Either may be a disabled
// implementation that reports ErrNotConfigured.
type Service struct {
	Email    Notifier
	WhatsApp Notifier
}
