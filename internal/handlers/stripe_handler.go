package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yuenlok/eventpass/internal/helpers"
	"github.com/yuenlok/eventpass/internal/middleware"
	"github.com/yuenlok/eventpass/internal/models"
	"github.com/yuenlok/eventpass/internal/payments"
)

// CreatePaymentLink issues (or re-reads) the hosted payment link for a
// purchase. Idempotent: an existing link is returned as-is.
func CreatePaymentLink(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	purchaseID, err := uuid.Parse(c.Param("purchaseId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid purchase ID.")
		return
	}

	var purchase models.Purchase
	if err := gormDB.Preload("Ticket").Preload("Event").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	if purchase.StripePaymentLinkURL != nil {
		helpers.RespondWithData(c, http.StatusOK, gin.H{
			"paymentLinkUrl": *purchase.StripePaymentLinkURL,
			"purchaseId":     purchase.ID,
			"status":         purchase.Status,
		}, "Payment link already exists.")
		return
	}

	gateway := middleware.GetGateway(c)
	if gateway == nil || !gateway.Enabled() {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway is not configured.")
		return
	}

	statusURL := helpers.StatusURL(purchase.UniqueID)
	link, err := gateway.CreatePaymentLink(c.Request.Context(), paymentLinkRequest(&purchase, statusURL))
	if err != nil {
		slog.Error("failed to create payment link", "purchase_id", purchase.ID, "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment link.")
		return
	}

	purchase.StripePaymentLinkID = &link.ID
	purchase.StripePaymentLinkURL = &link.URL
	purchase.PaymentMethod = models.PaymentMethodStripe
	if err := gormDB.Save(&purchase).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to store payment link.")
		return
	}

	helpers.RespondWithData(c, http.StatusOK, gin.H{
		"paymentLinkUrl": link.URL,
		"purchaseId":     purchase.ID,
		"status":         purchase.Status,
	}, "Payment link created.")
}

// HandleStripeWebhook receives gateway callbacks. A bad signature is the only
// hard failure; after verification every outcome is acknowledged with 200 so
// the gateway does not retry events we can never process (e.g. a purchase
// that was never ours).
func HandleStripeWebhook(c *gin.Context) {
	gateway := middleware.GetGateway(c)
	if gateway == nil {
		c.String(http.StatusInternalServerError, "Webhook Error: gateway not configured")
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: unreadable payload")
		return
	}

	event, err := gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.Error("webhook signature verification failed", "error", err)
		c.String(http.StatusBadRequest, "Webhook Error: %v", err)
		return
	}

	db, exists := c.Get("db")
	if !exists {
		c.String(http.StatusInternalServerError, "Webhook Error: database connection not found")
		return
	}
	gormDB := db.(*gorm.DB)

	switch event.Kind {
	case payments.EventCheckoutCompleted:
		handleCheckoutCompleted(c, gormDB, event)
	case payments.EventPaymentSucceeded:
		handlePaymentSucceeded(gormDB, event)
	case payments.EventPaymentFailed:
		handlePaymentFailed(gormDB, event)
	default:
		slog.Info("ignoring webhook event", "kind", event.Kind)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handleCheckoutCompleted confirms the purchase named in the session
// metadata and records the session id. Missing metadata or an unknown
// purchase is logged and dropped; the delivery still gets acked.
func handleCheckoutCompleted(c *gin.Context, gormDB *gorm.DB, event *payments.Event) {
	if event.PurchaseID == "" {
		slog.Error("checkout session completed without purchaseId metadata", "session_id", event.SessionID)
		return
	}

	purchaseID, err := uuid.Parse(event.PurchaseID)
	if err != nil {
		slog.Error("checkout session carries malformed purchaseId", "purchase_id", event.PurchaseID)
		return
	}

	var purchase models.Purchase
	if err := gormDB.Preload("Ticket").Preload("Event").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		slog.Error("purchase not found for completed checkout", "purchase_id", event.PurchaseID)
		return
	}

	purchase.Status = models.StatusConfirmed
	purchase.PaymentMethod = models.PaymentMethodStripe
	if purchase.StripeSessionID == nil {
		purchase.StripeSessionID = &event.SessionID
	} else if *purchase.StripeSessionID != event.SessionID {
		// A session id, once recorded, is never reassigned.
		slog.Warn("ignoring session id change on confirmed purchase",
			"purchase_id", purchase.ID, "stored", *purchase.StripeSessionID, "received", event.SessionID)
	}
	if err := gormDB.Save(&purchase).Error; err != nil {
		slog.Error("failed to confirm purchase", "purchase_id", purchase.ID, "error", err)
		return
	}

	slog.Info("purchase confirmed via checkout session", "purchase_id", purchase.ID)

	// WhatsApp payment confirmation, only when that is how the purchaser
	// asked to be reached.
	if notifier := middleware.GetNotifier(c); notifier != nil && purchase.ContactMethod == models.ContactMethodWhatsApp {
		view := registrationView(&purchase, helpers.StatusURL(purchase.UniqueID), nil)
		if err := notifier.WhatsApp.SendStatusUpdate(view, models.StatusConfirmed); err != nil {
			slog.Warn("failed to send whatsapp confirmation", "purchase_id", purchase.ID, "error", err)
		}
	}
}

// handlePaymentSucceeded is the late-arriving double of checkout completion,
// matched by session id. No-op when already confirmed, so duplicate
// deliveries keep the first payment-intent id.
func handlePaymentSucceeded(gormDB *gorm.DB, event *payments.Event) {
	if event.SessionID == "" {
		return
	}

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "stripe_session_id = ?", event.SessionID).Error; err != nil {
		return
	}
	if purchase.IsConfirmed() {
		return
	}

	purchase.Status = models.StatusConfirmed
	purchase.StripePaymentIntentID = &event.PaymentIntentID
	if err := gormDB.Save(&purchase).Error; err != nil {
		slog.Error("failed to confirm purchase", "purchase_id", purchase.ID, "error", err)
		return
	}
	slog.Info("purchase confirmed via payment intent", "purchase_id", purchase.ID)
}

// handlePaymentFailed cancels a still-pending purchase and restocks its
// seats. A stale failure never overwrites a confirmed or completed purchase.
func handlePaymentFailed(gormDB *gorm.DB, event *payments.Event) {
	if event.SessionID == "" {
		return
	}

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "stripe_session_id = ?", event.SessionID).Error; err != nil {
		return
	}
	if !purchase.IsPending() {
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		purchase.Status = models.StatusCancelled
		purchase.StripePaymentIntentID = &event.PaymentIntentID
		if err := tx.Save(&purchase).Error; err != nil {
			return err
		}
		return models.RestoreStock(tx, purchase.TicketID, purchase.Quantity)
	})
	if err != nil {
		slog.Error("failed to cancel purchase", "purchase_id", purchase.ID, "error", err)
		return
	}
	slog.Info("purchase cancelled after failed payment", "purchase_id", purchase.ID)
}

// CheckPaymentStatus reconciles local state against the gateway's live view
// of the checkout session, covering webhooks that never arrived.
func CheckPaymentStatus(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	purchaseID, err := uuid.Parse(c.Param("purchaseId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid purchase ID.")
		return
	}

	var purchase models.Purchase
	if err := gormDB.First(&purchase, "id = ?", purchaseID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Purchase not found.")
		return
	}

	if purchase.StripeSessionID == nil {
		helpers.RespondWithData(c, http.StatusOK, gin.H{
			"status":        purchase.Status,
			"paymentMethod": purchase.PaymentMethod,
			"hasStripeLink": purchase.StripePaymentLinkURL != nil,
		}, "")
		return
	}

	var stripeStatus *string
	gateway := middleware.GetGateway(c)
	if gateway != nil && gateway.Enabled() {
		session, err := gateway.SessionStatus(c.Request.Context(), *purchase.StripeSessionID)
		if err != nil {
			slog.Error("failed to check session status", "purchase_id", purchase.ID, "error", err)
		} else {
			stripeStatus = &session.PaymentStatus
			reconcilePaymentStatus(gormDB, &purchase, session)
		}
	}

	helpers.RespondWithData(c, http.StatusOK, gin.H{
		"status":         purchase.Status,
		"paymentMethod":  purchase.PaymentMethod,
		"stripeStatus":   stripeStatus,
		"paymentLinkUrl": purchase.StripePaymentLinkURL,
	}, "")
}

func reconcilePaymentStatus(gormDB *gorm.DB, purchase *models.Purchase, session *payments.Session) {
	switch {
	case session.PaymentStatus == payments.PaymentStatusPaid && !purchase.IsConfirmed():
		purchase.Status = models.StatusConfirmed
		if err := gormDB.Save(purchase).Error; err != nil {
			slog.Error("failed to reconcile purchase to confirmed", "purchase_id", purchase.ID, "error", err)
		}
	case session.PaymentStatus == payments.PaymentStatusUnpaid && session.Status == payments.SessionStatusExpired && purchase.IsPending():
		err := gormDB.Transaction(func(tx *gorm.DB) error {
			purchase.Status = models.StatusCancelled
			if err := tx.Save(purchase).Error; err != nil {
				return err
			}
			return models.RestoreStock(tx, purchase.TicketID, purchase.Quantity)
		})
		if err != nil {
			slog.Error("failed to reconcile purchase to cancelled", "purchase_id", purchase.ID, "error", err)
		}
	}
}
