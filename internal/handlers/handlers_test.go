package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yuenlok/eventpass/internal/middleware"
	"github.com/yuenlok/eventpass/internal/models"
	"github.com/yuenlok/eventpass/internal/notify"
	"github.com/yuenlok/eventpass/internal/payments"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.Ticket{}, &models.Purchase{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestRouter wires the handlers with the same middleware chain the server
// uses, minus authentication.
func newTestRouter(db *gorm.DB, gateway payments.Gateway, notifier *notify.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	if gateway != nil {
		r.Use(middleware.GatewayMiddleware(gateway))
	}
	if notifier != nil {
		r.Use(middleware.NotifierMiddleware(notifier))
	}

	api := r.Group("/api")
	api.POST("/auth/register", Register)
	api.POST("/auth/login", Login)
	authed := r.Group("/api")
	authed.Use(middleware.JWTAuthMiddleware())
	authed.GET("/auth/me", GetProfile)
	api.GET("/events", ListEvents)
	api.GET("/events/:id", GetEvent)
	api.POST("/events", CreateEvent)
	api.PUT("/events/:id", UpdateEvent)
	api.DELETE("/events/:id", DeleteEvent)
	api.GET("/tickets", ListTickets)
	api.GET("/tickets/event/:eventId", GetTicketsByEvent)
	api.GET("/tickets/:id", GetTicket)
	api.POST("/tickets", CreateTicket)
	api.PUT("/tickets/:id", UpdateTicket)
	api.DELETE("/tickets/:id", DeleteTicket)
	api.POST("/purchases", CreatePurchase)
	api.GET("/purchases", ListPurchases)
	api.GET("/purchases/pending", GetPendingPurchases)
	api.GET("/purchases/email/:email", GetPurchasesByEmail)
	api.GET("/purchases/status/:uniqueId", GetPurchaseByUniqueID)
	api.GET("/purchases/status/:uniqueId/qr", GetStatusQR)
	api.GET("/purchases/:id", GetPurchase)
	api.PUT("/purchases/:id/status", UpdatePurchaseStatus)
	api.PUT("/purchases/:id/confirmation", MarkConfirmationSent)
	api.POST("/stripe/webhook", HandleStripeWebhook)
	api.GET("/stripe/payment-status/:purchaseId", CheckPaymentStatus)
	api.POST("/stripe/payment-link/:purchaseId", CreatePaymentLink)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func seedEvent(t *testing.T, db *gorm.DB) *models.Event {
	t.Helper()
	event := models.Event{
		Title:            "Summer Gala",
		Description:      "Annual summer fundraising gala",
		ShortDescription: "Fundraising gala",
		Date:             time.Now().Add(45 * 24 * time.Hour),
		Time:             "19:00",
		Venue:            "Harbour Convention Centre",
		Status:           models.EventStatusUpcoming,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return &event
}

func seedTicket(t *testing.T, db *gorm.DB, event *models.Event, mutate func(*models.Ticket)) *models.Ticket {
	t.Helper()
	ticket := models.Ticket{
		EventID:       event.ID,
		Name:          "Standard Admission",
		Price:         500,
		Currency:      "HKD",
		Type:          models.TicketTypeStandard,
		Available:     3,
		Total:         3,
		SaleStartDate: time.Now().Add(-24 * time.Hour),
		SaleEndDate:   time.Now().Add(30 * 24 * time.Hour),
		IsActive:      true,
	}
	if mutate != nil {
		mutate(&ticket)
	}
	if err := db.Create(&ticket).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return &ticket
}

func seedPurchase(t *testing.T, db *gorm.DB, ticket *models.Ticket, mutate func(*models.Purchase)) *models.Purchase {
	t.Helper()
	purchase := models.Purchase{
		Email:         "buyer@example.com",
		Username:      "Buyer",
		ContactMethod: models.ContactMethodEmail,
		ContactInfo:   "buyer@example.com",
		TicketID:      ticket.ID,
		EventID:       ticket.EventID,
		Quantity:      1,
		TotalPrice:    ticket.Price,
		Currency:      ticket.Currency,
		Status:        models.StatusPending,
	}
	if mutate != nil {
		mutate(&purchase)
	}
	if err := db.Create(&purchase).Error; err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return &purchase
}

func reloadPurchase(t *testing.T, db *gorm.DB, id any) *models.Purchase {
	t.Helper()
	var purchase models.Purchase
	if err := db.First(&purchase, "id = ?", id).Error; err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	return &purchase
}

func availableFor(t *testing.T, db *gorm.DB, ticket *models.Ticket) int {
	t.Helper()
	var reloaded models.Ticket
	if err := db.First(&reloaded, "id = ?", ticket.ID).Error; err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	return reloaded.Available
}

// fakeGateway records payment-link requests and replays canned sessions. Its
// ParseWebhook accepts the literal signature "valid" and decodes the payload
// as a flattened event, so webhook dispatch can be driven without real
// signatures.
type fakeGateway struct {
	disabled   bool
	linkErr    error
	links      []payments.LinkRequest
	sessions   map[string]*payments.Session
	sessionErr error
}

func (g *fakeGateway) Enabled() bool { return !g.disabled }

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, req payments.LinkRequest) (*payments.Link, error) {
	if g.linkErr != nil {
		return nil, g.linkErr
	}
	g.links = append(g.links, req)
	id := fmt.Sprintf("plink_%d", len(g.links))
	return &payments.Link{ID: id, URL: "https://pay.example.com/" + id}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payments.Event, error) {
	if signature != "valid" {
		return nil, errors.New("signature verification failed")
	}
	var event payments.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (g *fakeGateway) SessionStatus(ctx context.Context, sessionID string) (*payments.Session, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return session, nil
}

func postWebhook(r *gin.Engine, event payments.Event, signature string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(event)
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", bytes.NewReader(raw))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type recordedStatusUpdate struct {
	registration notify.Registration
	status       string
}

// recordingNotifier satisfies notify.Notifier and keeps everything it was
// asked to send.
type recordingNotifier struct {
	err           error
	confirmations []notify.Registration
	statusUpdates []recordedStatusUpdate
}

func (n *recordingNotifier) SendRegistrationConfirmation(r notify.Registration) error {
	if n.err != nil {
		return n.err
	}
	n.confirmations = append(n.confirmations, r)
	return nil
}

func (n *recordingNotifier) SendStatusUpdate(r notify.Registration, newStatus string) error {
	if n.err != nil {
		return n.err
	}
	n.statusUpdates = append(n.statusUpdates, recordedStatusUpdate{registration: r, status: newStatus})
	return nil
}

func newRecordingService() (*notify.Service, *recordingNotifier, *recordingNotifier) {
	email := &recordingNotifier{}
	whatsapp := &recordingNotifier{}
	return &notify.Service{Email: email, WhatsApp: whatsapp}, email, whatsapp
}
