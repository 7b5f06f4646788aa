package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/orders"
	"storefront/internal/payments"
)

func CreateOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in orders.CreateInput
		if !bindJSON(c, &in) {
			return
		}
		order, err := svc.Create(c.Request.Context(), caller.UserID, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func GetMyOrders(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		page, ok := pageFromQuery(c)
		if !ok {
			return
		}
		list, total, err := svc.ListForUser(c.Request.Context(), caller.UserID, strings.TrimSpace(c.Query("status")), page)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, page, total)
	}
}

func GetOrderStats(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/stats"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		stats, err := svc.StatsForUser(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func GetOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.Get(c.Request.Context(), caller, id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func CancelOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/cancel"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.Cancel(c.Request.Context(), caller, id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func TrackOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track/:orderNumber"

		tracking, err := svc.Track(c.Request.Context(), c.Param("orderNumber"))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, tracking)
	}
}

// PaymentWebhook needs the raw body for signature verification, so it reads
// it before any decoding.
func PaymentWebhook(svc *payments.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/payment/webhook"

		body, err := c.GetRawData()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		order, err := svc.HandleWebhook(c.Request.Context(), body, c.GetHeader(payments.SignatureHeader))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "webhook processed",
			"orderNumber":   order.OrderNumber,
			"status":        order.Status,
			"paymentStatus": order.Payment.Status,
		})
	}
}
