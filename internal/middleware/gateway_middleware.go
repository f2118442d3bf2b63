package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yuenlok/eventpass/internal/notify"
	"github.com/yuenlok/eventpass/internal/payments"
)

func GatewayMiddleware(gateway payments.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("payment_gateway", gateway)
		c.Next()
	}
}

func GetGateway(c *gin.Context) payments.Gateway {
	gateway, exists := c.Get("payment_gateway")
	if !exists {
		return nil
	}
	return gateway.(payments.Gateway)
}

func NotifierMiddleware(service *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("notifier", service)
		c.Next()
	}
}

func GetNotifier(c *gin.Context) *notify.Service {
	service, exists := c.Get("notifier")
	if !exists {
		return nil
	}
	return service.(*notify.Service)
}
