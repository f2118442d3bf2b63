package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implements Gateway against the Stripe API. A payment link is
// product -> price -> link, with the purchase id carried as metadata on all
// three so webhook callbacks can be correlated back to the purchase row.
type StripeGateway struct {
	api           *client.API
	secretKey     string
	webhookSecret string
}

// NewStripe builds the gateway. An empty secretKey yields a disabled gateway:
// Enabled() is false and every call fails with ErrNotConfigured. The HTTP
// client gets an explicit timeout so a hung Stripe call cannot stall a
// registration response forever.
func NewStripe(secretKey, webhookSecret string, timeout time.Duration) *StripeGateway {
	g := &StripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
	if secretKey == "" {
		return g
	}

	backends := stripe.NewBackends(&http.Client{Timeout: timeout})
	g.api = &client.API{}
	g.api.Init(secretKey, backends)
	return g
}

func (g *StripeGateway) Enabled() bool {
	return g.api != nil
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}

	productParams := &stripe.ProductParams{
		Name:        stripe.String(fmt.Sprintf("%s - %s", req.EventTitle, req.TicketName)),
		Description: stripe.String(fmt.Sprintf("Ticket purchase - %s", req.Username)),
	}
	productParams.Context = ctx
	productParams.AddMetadata("purchaseId", req.PurchaseID)
	productParams.AddMetadata("eventTitle", req.EventTitle)
	productParams.AddMetadata("ticketName", req.TicketName)
	productParams.AddMetadata("username", req.Username)
	productParams.AddMetadata("email", req.Email)

	product, err := g.api.Products.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(int64(req.TotalPrice) * 100),
		Currency:   stripe.String(strings.ToLower(req.Currency)),
	}
	priceParams.Context = ctx
	priceParams.AddMetadata("purchaseId", req.PurchaseID)

	price, err := g.api.Prices.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String("redirect"),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(req.StatusURL),
			},
		},
		AllowPromotionCodes:      stripe.Bool(false),
		BillingAddressCollection: stripe.String("required"),
		PhoneNumberCollection: &stripe.PaymentLinkPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	linkParams.Context = ctx
	linkParams.AddMetadata("purchaseId", req.PurchaseID)

	link, err := g.api.PaymentLinks.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}

	return &Link{ID: link.ID, URL: link.URL}, nil
}

// ParseWebhook verifies the signature over the raw body and flattens the
// event. Verification must run before any JSON decoding of the payload.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	stripeEvent, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, err
	}

	event := &Event{Kind: string(stripeEvent.Type)}

	switch event.Kind {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		event.PurchaseID = session.Metadata["purchaseId"]
		event.SessionID = session.ID

	case EventPaymentSucceeded, EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		event.SessionID = intent.Metadata["session_id"]
		event.PaymentIntentID = intent.ID
	}

	return event, nil
}

func (g *StripeGateway) SessionStatus(ctx context.Context, sessionID string) (*Session, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	return &Session{
		PaymentStatus: string(session.PaymentStatus),
		Status:        string(session.Status),
	}, nil
}
