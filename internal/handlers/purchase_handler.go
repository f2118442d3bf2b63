package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/yuenlok/eventpass/internal/helpers"
	"github.com/yuenlok/eventpass/internal/middleware"
	"github.com/yuenlok/eventpass/internal/models"
	"github.com/yuenlok/eventpass/internal/notify"
	"github.com/yuenlok/eventpass/internal/payments"
)

type PurchaseRequest struct {
	Email         string `json:"email"`
	Username      string `json:"username"`
	ContactMethod string `json:"contactMethod"`
	ContactInfo   string `json:"contactInfo"`
	TicketID      string `json:"ticketId"`
	Quantity      int    `json:"quantity"`
	Notes         string `json:"notes"`
	// AdditionalAmount is a per-unit donation on top of the ticket price.
	// Only honored when the ticket allows custom pricing, and always
	// recomputed and clamped server-side.
	AdditionalAmount int `json:"additionalAmount"`
}

// purchasePayload is the creation/lookup response: the purchase plus the two
// URLs the client needs. The named fields shadow the embedded ones so the
// freshly composed values always win.
type purchasePayload struct {
	models.Purchase
	StatusURL            string  `json:"statusUrl"`
	StripePaymentLinkURL *string `json:"stripePaymentLinkUrl"`
}

var errInsufficientStock = errors.New("insufficient ticket stock")

// CreatePurchase runs the registration workflow: validate, atomically create
// the purchase and take inventory, then best-effort payment link and
// confirmation email. Once the transaction commits the registration succeeds
// no matter what the gateway or mail transport do.
func CreatePurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	if req.Email == "" || req.Username == "" || req.ContactMethod == "" || req.ContactInfo == "" || req.TicketID == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Please fill in all required fields.")
		return
	}

	if !helpers.IsValidEmail(req.Email) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}

	if !helpers.IsValidContactMethod(req.ContactMethod) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid contact method.")
		return
	}

	if helpers.RequiresInternationalNumber(req.ContactMethod) && !helpers.HasInternationalPrefix(req.ContactInfo) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Phone numbers must start with +, e.g. +85212345678.")
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Quantity must be at least 1.")
		return
	}

	ticketID, err := uuid.Parse(req.TicketID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Ticket ID format is invalid, please choose a ticket again.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticket models.Ticket
	if err := gormDB.Preload("Event").First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "The selected ticket could not be found, please choose a ticket again.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket.")
		return
	}

	if !ticket.IsActive {
		helpers.RespondWithError(c, http.StatusBadRequest, "This ticket is not currently available for purchase.")
		return
	}

	if ticket.Available < quantity {
		helpers.RespondWithError(c, http.StatusBadRequest, fmt.Sprintf("Not enough tickets left, only %d remaining.", ticket.Available))
		return
	}

	purchase := models.Purchase{
		Email:         strings.ToLower(req.Email),
		Username:      req.Username,
		ContactMethod: req.ContactMethod,
		ContactInfo:   req.ContactInfo,
		TicketID:      ticket.ID,
		EventID:       ticket.EventID,
		Quantity:      quantity,
		TotalPrice:    unitPrice(&ticket, req.AdditionalAmount) * quantity,
		Currency:      ticket.Currency,
		Status:        models.StatusPending,
		Notes:         req.Notes,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	}

	// Inventory decrement and purchase insert share one transaction, with
	// the decrement conditional on remaining stock. A concurrent purchase
	// that takes the last seats makes this one roll back cleanly.
	err = gormDB.Transaction(func(tx *gorm.DB) error {
		reserved, err := models.ReserveStock(tx, ticket.ID, quantity)
		if err != nil {
			return err
		}
		if !reserved {
			return errInsufficientStock
		}
		return tx.Create(&purchase).Error
	})
	if err != nil {
		if errors.Is(err, errInsufficientStock) {
			var remaining models.Ticket
			gormDB.Select("available").First(&remaining, "id = ?", ticket.ID)
			helpers.RespondWithError(c, http.StatusBadRequest, fmt.Sprintf("Not enough tickets left, only %d remaining.", remaining.Available))
			return
		}
		slog.Error("failed to create purchase", "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to submit registration.")
		return
	}

	if err := gormDB.Preload("Ticket").Preload("Event").First(&purchase, "id = ?", purchase.ID).Error; err != nil {
		slog.Error("failed to reload purchase", "purchase_id", purchase.ID, "error", err)
	}

	statusURL := helpers.StatusURL(purchase.UniqueID)

	// Payment link and confirmation email are both best-effort from here on:
	// failures are logged and the response still reports success.
	var paymentLinkURL *string
	gateway := middleware.GetGateway(c)
	if gateway != nil && gateway.Enabled() {
		link, err := gateway.CreatePaymentLink(c.Request.Context(), paymentLinkRequest(&purchase, statusURL))
		if err != nil {
			slog.Error("failed to create payment link, falling back to manual payment", "purchase_id", purchase.ID, "error", err)
		} else {
			purchase.StripePaymentLinkID = &link.ID
			purchase.StripePaymentLinkURL = &link.URL
			purchase.PaymentMethod = models.PaymentMethodStripe
			if err := gormDB.Save(&purchase).Error; err != nil {
				slog.Error("failed to store payment link", "purchase_id", purchase.ID, "error", err)
			}
			paymentLinkURL = &link.URL
		}
	}

	if notifier := middleware.GetNotifier(c); notifier != nil {
		view := registrationView(&purchase, statusURL, paymentLinkURL)
		if err := notifier.Email.SendRegistrationConfirmation(view); err != nil {
			slog.Warn("failed to send registration confirmation email", "purchase_id", purchase.ID, "error", err)
		}
	}

	helpers.RespondWithData(c, http.StatusCreated, purchasePayload{
		Purchase:             purchase,
		StatusURL:            statusURL,
		StripePaymentLinkURL: paymentLinkURL,
	}, "Registration submitted.")
}

// unitPrice computes the per-unit charge. Client-supplied totals are never
// trusted; custom amounts are clamped to the ticket's configured bounds.
func unitPrice(ticket *models.Ticket, additionalAmount int) int {
	if !ticket.AllowCustomPrice || additionalAmount <= 0 {
		return ticket.Price
	}
	price := ticket.Price + additionalAmount
	if price < ticket.MinPrice {
		price = ticket.MinPrice
	}
	if ticket.MaxPrice > 0 && price > ticket.MaxPrice {
		price = ticket.MaxPrice
	}
	return price
}

func ListPurchases(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	pageNum, err := helpers.StringToInt(c.DefaultQuery("page", "1"))
	if err != nil || pageNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}
	limitNum, err := helpers.StringToInt(c.DefaultQuery("limit", "20"))
	if err != nil || limitNum < 1 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	query := gormDB.Model(&models.Purchase{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if eventID := c.Query("eventId"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}
	if email := c.Query("email"); email != "" {
		query = query.Where("email = ?", strings.ToLower(email))
	}

	var total int64
	query.Count(&total)

	var purchases []models.Purchase
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Ticket").Preload("Event").
		Order("created_at DESC").
		Offset(offset).Limit(limitNum).
		Find(&purchases).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving purchases.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    purchases,
		"pagination": gin.H{
			"current": pageNum,
			"pages":   (total + int64(limitNum) - 1) / int64(limitNum),
			"total":   total,
		},
	})
}

func GetPendingPurchases(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var purchases []models.Purchase
	err := gormDB.Preload("Ticket").Preload("Event").
		Where("status = ?", models.StatusPending).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving purchases.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, purchases, "")
}

func GetPurchasesByEmail(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var purchases []models.Purchase
	err := gormDB.Preload("Ticket").Preload("Event").
		Where("email = ?", strings.ToLower(c.Param("email"))).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving purchases.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, purchases, "")
}

func GetPurchase(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid purchase ID.")
		return
	}

	var purchase models.Purchase
	if err := gormDB.Preload("Ticket").Preload("Event").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, purchase, "")
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdatePurchaseStatus is the administrative override: any status may move to
// any other. Inventory follows the transition: entering cancelled restocks,
// leaving cancelled re-reserves.
func UpdatePurchaseStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	if !models.IsValidStatus(req.Status) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid status value.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid purchase ID.")
		return
	}

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	previous := purchase.Status
	err = gormDB.Transaction(func(tx *gorm.DB) error {
		purchase.Status = req.Status
		if err := tx.Save(&purchase).Error; err != nil {
			return err
		}
		return adjustStockForTransition(tx, &purchase, previous, req.Status)
	})
	if err != nil {
		if errors.Is(err, errInsufficientStock) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Cannot reactivate this purchase: not enough tickets remaining.")
			return
		}
		slog.Error("failed to update purchase status", "purchase_id", purchase.ID, "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update purchase status.")
		return
	}

	if err := gormDB.Preload("Ticket").Preload("Event").First(&purchase, "id = ?", purchase.ID).Error; err != nil {
		slog.Error("failed to reload purchase", "purchase_id", purchase.ID, "error", err)
	}

	if notifier := middleware.GetNotifier(c); notifier != nil {
		view := registrationView(&purchase, helpers.StatusURL(purchase.UniqueID), nil)
		if err := notifier.Email.SendStatusUpdate(view, req.Status); err != nil {
			slog.Warn("failed to send status update email", "purchase_id", purchase.ID, "error", err)
		}
	}

	helpers.RespondWithData(c, http.StatusOK, purchase, "Purchase status updated.")
}

// adjustStockForTransition keeps ticket inventory consistent with the status
// change. Must run inside the same transaction as the status write.
func adjustStockForTransition(tx *gorm.DB, purchase *models.Purchase, from, to string) error {
	if from == to {
		return nil
	}
	if to == models.StatusCancelled {
		return models.RestoreStock(tx, purchase.TicketID, purchase.Quantity)
	}
	if from == models.StatusCancelled {
		reserved, err := models.ReserveStock(tx, purchase.TicketID, purchase.Quantity)
		if err != nil {
			return err
		}
		if !reserved {
			return errInsufficientStock
		}
	}
	return nil
}

type ConfirmationRequest struct {
	Method string `json:"method"`
}

func MarkConfirmationSent(c *gin.Context) {
	// Body is optional; the method defaults to email.
	var req ConfirmationRequest
	_ = c.ShouldBindJSON(&req)
	if req.Method == "" {
		req.Method = models.ContactMethodEmail
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid purchase ID.")
		return
	}

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	if err := purchase.MarkConfirmationSent(gormDB, req.Method); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update confirmation state.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, purchase, "Confirmation state updated.")
}

// GetPurchaseByUniqueID is the public capability-URL lookup: the token itself
// is the credential, no authentication happens here.
func GetPurchaseByUniqueID(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var purchase models.Purchase
	err := gormDB.Preload("Ticket").Preload("Event").
		First(&purchase, "unique_id = ?", c.Param("uniqueId")).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, purchase, "")
}

// GetStatusQR renders the status URL as a PNG for printing or scanning.
func GetStatusQR(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "unique_id = ?", c.Param("uniqueId")).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	png, err := qrcode.Encode(helpers.StatusURL(purchase.UniqueID), qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func paymentLinkRequest(purchase *models.Purchase, statusURL string) payments.LinkRequest {
	req := payments.LinkRequest{
		PurchaseID: purchase.ID.String(),
		UniqueID:   purchase.UniqueID,
		TotalPrice: purchase.TotalPrice,
		Currency:   purchase.Currency,
		TicketName: "Unknown Ticket",
		EventTitle: "Unknown Event",
		Username:   purchase.Username,
		Email:      purchase.Email,
		StatusURL:  statusURL,
	}
	if purchase.Ticket != nil {
		req.TicketName = purchase.Ticket.Name
	}
	if purchase.Event != nil {
		req.EventTitle = purchase.Event.Title
	}
	return req
}

func registrationView(purchase *models.Purchase, statusURL string, paymentLinkURL *string) notify.Registration {
	view := notify.Registration{
		Email:         purchase.Email,
		Username:      purchase.Username,
		ContactMethod: purchase.ContactMethod,
		ContactInfo:   purchase.ContactInfo,
		Quantity:      purchase.Quantity,
		TotalPrice:    purchase.TotalPrice,
		Currency:      purchase.Currency,
		StatusURL:     statusURL,
	}
	if purchase.Event != nil {
		view.EventTitle = purchase.Event.Title
		view.EventDate = purchase.Event.Date
		view.EventTime = purchase.Event.Time
		view.EventVenue = purchase.Event.Venue
	}
	if purchase.Ticket != nil {
		view.TicketName = purchase.Ticket.Name
	}
	if paymentLinkURL != nil {
		view.PaymentLinkURL = *paymentLinkURL
	}
	return view
}
