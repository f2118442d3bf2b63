package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// EmailNotifier delivers registration and status emails over SMTP. With no
// credentials it stays constructed but disabled, so callers can always invoke
// it and just log the ErrNotConfigured result.
type EmailNotifier struct {
	opts      SMTPOptions
	dialer    *gomail.Dialer
	templates map[string]*template.Template
}

func NewEmailNotifier(opts SMTPOptions) *EmailNotifier {
	n := &EmailNotifier{
		opts: opts,
		templates: map[string]*template.Template{
			"registration": template.Must(template.New("registration").Parse(registrationEmailTemplate)),
			"status":       template.Must(template.New("status").Parse(statusEmailTemplate)),
		},
	}
	if opts.Username != "" && opts.Password != "" {
		n.dialer = gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	}
	return n
}

func (n *EmailNotifier) SendRegistrationConfirmation(r Registration) error {
	if n.dialer == nil {
		return ErrNotConfigured
	}

	body, err := n.render("registration", registrationEmailData{
		Registration: r,
		HasPayment:   r.PaymentLinkURL != "",
	})
	if err != nil {
		return err
	}
	return n.send(r.Email, "Registration Confirmed - "+r.EventTitle, body)
}

func (n *EmailNotifier) SendStatusUpdate(r Registration, newStatus string) error {
	if n.dialer == nil {
		return ErrNotConfigured
	}

	body, err := n.render("status", statusEmailData{
		Registration: r,
		NewStatus:    newStatus,
	})
	if err != nil {
		return err
	}
	return n.send(r.Email, "Registration Status Update - "+r.EventTitle, body)
}

func (n *EmailNotifier) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := n.templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func (n *EmailNotifier) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.opts.From, n.opts.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return n.dialer.DialAndSend(m)
}

type registrationEmailData struct {
	Registration
	HasPayment bool
}

type statusEmailData struct {
	Registration
	NewStatus string
}

const registrationEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="border-bottom: 2px solid #ef4444; padding-bottom: 10px;">Registration Confirmed</h2>
  <p>Dear {{.Username}},</p>
  <p>Thank you for registering. Here are your details:</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td style="padding: 6px 0; color: #666;">Event</td><td>{{.EventTitle}}</td></tr>
    <tr><td style="padding: 6px 0; color: #666;">Date</td><td>{{.EventDate.Format "2006-01-02"}} {{.EventTime}}</td></tr>
    <tr><td style="padding: 6px 0; color: #666;">Venue</td><td>{{.EventVenue}}</td></tr>
    <tr><td style="padding: 6px 0; color: #666;">Ticket</td><td>{{.TicketName}}</td></tr>
    <tr><td style="padding: 6px 0; color: #666;">Quantity</td><td>{{.Quantity}}</td></tr>
    <tr><td style="padding: 6px 0; color: #666;">Total</td><td>{{.Currency}} {{.TotalPrice}}</td></tr>
  </table>
  {{if .HasPayment}}
  <p style="margin: 20px 0;"><a href="{{.PaymentLinkURL}}" style="background: #10b981; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Pay Now</a></p>
  {{end}}
  <p>You can check your registration status at any time:</p>
  <p><a href="{{.StatusURL}}">{{.StatusURL}}</a></p>
  <p style="color: #666; font-size: 13px;">We will contact you within 1-2 business days to confirm payment arrangements.</p>
</body>
</html>`

const statusEmailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="border-bottom: 2px solid #ef4444; padding-bottom: 10px;">Registration Status Update</h2>
  <p>Dear {{.Username}},</p>
  <p>Your registration for <strong>{{.EventTitle}}</strong> ({{.TicketName}}) is now:</p>
  <p style="font-size: 18px; font-weight: bold;">{{.NewStatus}}</p>
  <p>Details are available at your status page:</p>
  <p><a href="{{.StatusURL}}">{{.StatusURL}}</a></p>
</body>
</html>`
