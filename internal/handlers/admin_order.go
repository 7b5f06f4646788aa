package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/orders"
	"storefront/internal/store"
)

const dateLayout = "2006-01-02"

// parseDateBound accepts a calendar date or an RFC 3339 instant. A bare date
// used as an upper bound covers that whole day.
func parseDateBound(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func AdminGetOrders(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders"

		page, ok := pageFromQuery(c)
		if !ok {
			return
		}
		from, err := parseDateBound(strings.TrimSpace(c.Query("from")), false)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err := parseDateBound(strings.TrimSpace(c.Query("to")), true)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}

		f := store.OrderFilter{
			Status:        strings.TrimSpace(c.Query("status")),
			PaymentStatus: strings.TrimSpace(c.Query("paymentStatus")),
			Search:        strings.TrimSpace(c.Query("search")),
			From:          from,
			To:            to,
			Sort:          strings.TrimSpace(c.Query("sort")),
			Page:          page,
		}
		list, total, err := svc.AdminList(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, page, total)
	}
}

func AdminGetOrder(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.AdminGet(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdateOrderStatus(svc *orders.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/orders/:id/status"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in orders.StatusInput
		if !bindJSON(c, &in) {
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), caller.UserID, id, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
