package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/reports"
	"storefront/internal/settings"
	"storefront/internal/store"
)

// intQuery returns def when the parameter is absent and aborts on garbage.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func GetDashboard(svc *reports.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/dashboard"

		dashboard, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

func GetSalesReport(svc *reports.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/reports/sales"

		days, ok := intQuery(c, "days", reports.DefaultDays)
		if !ok {
			return
		}
		sales, err := svc.DailySales(c.Request.Context(), days)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, sales)
	}
}

func GetCategoryReport(svc *reports.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/reports/categories"

		categories, err := svc.Categories(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func GetProductReport(svc *reports.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/reports/products"

		days, ok := intQuery(c, "days", reports.DefaultDays)
		if !ok {
			return
		}
		limit, ok := intQuery(c, "limit", reports.DefaultLimit)
		if !ok {
			return
		}
		products, err := svc.Products(c.Request.Context(), days, limit)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func GetNotifications(inbox *notify.Inbox, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/notifications"

		page, ok := pageFromQuery(c)
		if !ok {
			return
		}
		f := store.NotificationFilter{
			Type:     strings.TrimSpace(c.Query("type")),
			Priority: strings.TrimSpace(c.Query("priority")),
			Page:     page,
		}
		if f.Priority != "" && !models.ValidNotificationPriority(f.Priority) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		if raw := strings.TrimSpace(c.Query("isRead")); raw != "" {
			isRead, err := strconv.ParseBool(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid isRead"})
				return
			}
			f.IsRead = &isRead
		}
		list, total, err := inbox.List(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, page, total)
	}
}

func GetNotificationStats(inbox *notify.Inbox, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/notifications/stats"

		stats, err := inbox.Stats(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func MarkNotificationRead(inbox *notify.Inbox, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/notifications/:id/read"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		note, err := inbox.MarkRead(c.Request.Context(), id, caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func MarkAllNotificationsRead(inbox *notify.Inbox, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/notifications/read-all"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		modified, err := inbox.MarkAllRead(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"modified": modified})
	}
}

func DeleteNotification(inbox *notify.Inbox, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/notifications/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := inbox.Delete(c.Request.Context(), id); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
	}
}

func GetSettings(holder *settings.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, holder.Current())
	}
}

func UpdateSettings(holder *settings.Holder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/settings"

		var in models.Settings
		if !bindJSON(c, &in) {
			return
		}
		in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
		updated, err := holder.Replace(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
