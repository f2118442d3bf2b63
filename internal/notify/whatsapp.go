package notify

import (
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type WhatsAppOptions struct {
	AccountSID string
	AuthToken  string
	From       string
	Enabled    bool
}

// WhatsAppNotifier sends short text notifications through the Twilio
// WhatsApp API. Only useful when the purchaser chose whatsapp as their
// contact method; callers are expected to check that.
type WhatsAppNotifier struct {
	opts   WhatsAppOptions
	client *twilio.RestClient
}

func NewWhatsAppNotifier(opts WhatsAppOptions) *WhatsAppNotifier {
	n := &WhatsAppNotifier{opts: opts}
	if opts.AccountSID != "" && opts.AuthToken != "" {
		n.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: opts.AccountSID,
			Password: opts.AuthToken,
		})
	}
	return n
}

func (n *WhatsAppNotifier) SendRegistrationConfirmation(r Registration) error {
	body := fmt.Sprintf(
		"Hi %s, your registration for %s (%s x%d, %s %d) has been received. Track it here: %s",
		r.Username, r.EventTitle, r.TicketName, r.Quantity, r.Currency, r.TotalPrice, r.StatusURL,
	)
	return n.send(r.ContactInfo, body)
}

func (n *WhatsAppNotifier) SendStatusUpdate(r Registration, newStatus string) error {
	body := fmt.Sprintf(
		"Hi %s, your registration for %s is now %s. Details: %s",
		r.Username, r.EventTitle, newStatus, r.StatusURL,
	)
	return n.send(r.ContactInfo, body)
}

func (n *WhatsAppNotifier) send(number, body string) error {
	if n.client == nil || !n.opts.Enabled {
		return ErrNotConfigured
	}
	if !strings.HasPrefix(number, "+") {
		return fmt.Errorf("whatsapp number must start with +, got %q", number)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(n.opts.From)
	params.SetTo("whatsapp:" + number)
	params.SetBody(body)

	_, err := n.client.Api.CreateMessage(params)
	return err
}
