package payments

import (
	"context"
	"errors"
)

// Webhook event kinds the purchase workflow reacts to. Anything else is
// acknowledged and dropped.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// Checkout session states as reported by the gateway.
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusUnpaid  = "unpaid"
	SessionStatusExpired = "expired"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

// LinkRequest carries everything the gateway needs to build a hosted payment
// link for one purchase. TotalPrice is in whole currency units.
type LinkRequest struct {
	PurchaseID string
	UniqueID   string
	TotalPrice int
	Currency   string
	TicketName string
	EventTitle string
	Username   string
	Email      string
	StatusURL  string
}

type Link struct {
	ID  string
	URL string
}

// Event is a gateway callback flattened to the fields the webhook handler
// dispatches on. PurchaseID comes from checkout-session metadata; SessionID
// ties payment-intent events back to a stored session.
type Event struct {
	Kind            string
	PurchaseID      string
	SessionID       string
	PaymentIntentID string
}

type Session struct {
	PaymentStatus string
	Status        string
}

// Gateway is the payment-link issuer port. The purchase workflow treats every
// call as fallible and slow: link creation happens only after the purchase
// row exists, and failures degrade to manual payment instead of rolling the
// registration back.
type Gateway interface {
	Enabled() bool
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
	SessionStatus(ctx context.Context, sessionID string) (*Session, error)
}
