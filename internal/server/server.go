package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yuenlok/eventpass/config"
	"github.com/yuenlok/eventpass/internal/handlers"
	"github.com/yuenlok/eventpass/internal/middleware"
	"github.com/yuenlok/eventpass/internal/notify"
	"github.com/yuenlok/eventpass/internal/payments"
)

const gatewayTimeout = 15 * time.Second

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	stripeCfg := config.LoadStripeConfig()
	gateway := payments.NewStripe(stripeCfg.SecretKey, stripeCfg.WebhookSecret, gatewayTimeout)

	smtpCfg := config.LoadSMTPConfig()
	twilioCfg := config.LoadTwilioConfig()
	notifier := &notify.Service{
		Email: notify.NewEmailNotifier(notify.SMTPOptions{
			Host:     smtpCfg.Host,
			Port:     smtpCfg.Port,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
			From:     smtpCfg.From,
			FromName: smtpCfg.FromName,
		}),
		WhatsApp: notify.NewWhatsAppNotifier(notify.WhatsAppOptions{
			AccountSID: twilioCfg.AccountSID,
			AuthToken:  twilioCfg.AuthToken,
			From:       twilioCfg.WhatsAppFrom,
			Enabled:    twilioCfg.Enabled,
		}),
	}

	r := gin.Default()

	setupRoutes(r, db, gateway, notifier)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, gateway payments.Gateway, notifier *notify.Service) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.GatewayMiddleware(gateway))
	r.Use(middleware.NotifierMiddleware(notifier))

	public := r.Group("/api")
	{
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		public.GET("/events", handlers.ListEvents)
		public.GET("/events/:id", handlers.GetEvent)

		public.GET("/tickets", handlers.ListTickets)
		public.GET("/tickets/event/:eventId", handlers.GetTicketsByEvent)
		public.GET("/tickets/:id", handlers.GetTicket)

		public.POST("/purchases", handlers.CreatePurchase)
		public.GET("/purchases/status/:uniqueId", handlers.GetPurchaseByUniqueID)
		public.GET("/purchases/status/:uniqueId/qr", handlers.GetStatusQR)

		// Raw-body signature verification happens inside the handler.
		public.POST("/stripe/webhook", handlers.HandleStripeWebhook)
		public.GET("/stripe/payment-status/:purchaseId", handlers.CheckPaymentStatus)
	}

	authed := r.Group("/api")
	authed.Use(middleware.JWTAuthMiddleware())
	{
		authed.GET("/auth/me", handlers.GetProfile)
	}

	admin := r.Group("/api")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.RequireAdmin())
	{
		admin.POST("/events", handlers.CreateEvent)
		admin.PUT("/events/:id", handlers.UpdateEvent)
		admin.DELETE("/events/:id", handlers.DeleteEvent)

		admin.POST("/tickets", handlers.CreateTicket)
		admin.PUT("/tickets/:id", handlers.UpdateTicket)
		admin.DELETE("/tickets/:id", handlers.DeleteTicket)

		admin.GET("/purchases", handlers.ListPurchases)
		admin.GET("/purchases/pending", handlers.GetPendingPurchases)
		admin.GET("/purchases/email/:email", handlers.GetPurchasesByEmail)
		admin.GET("/purchases/:id", handlers.GetPurchase)
		admin.PUT("/purchases/:id/status", handlers.UpdatePurchaseStatus)
		admin.PUT("/purchases/:id/confirmation", handlers.MarkConfirmationSent)

		admin.POST("/stripe/payment-link/:purchaseId", handlers.CreatePaymentLink)
	}
}
