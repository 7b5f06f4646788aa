package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/quotes"
)

func RequestQuotation(svc *quotes.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /quotations"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in quotes.RequestInput
		if !bindJSON(c, &in) {
			return
		}
		q, err := svc.Request(c.Request.Context(), caller.UserID, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}

func GetMyQuotations(svc *quotes.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /quotations"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		page, ok := pageFromQuery(c)
		if !ok {
			return
		}
		list, total, err := svc.ListMine(c.Request.Context(), caller.UserID, c.Query("status"), page)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, page, total)
	}
}

// GetQuotation serves both the owner route and the admin route.
func GetQuotation(svc *quotes.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /quotations/:id"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		q, err := svc.Get(c.Request.Context(), caller, id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

func AdminGetQuotations(svc *quotes.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/quotations"

		page, ok := pageFromQuery(c)
		if !ok {
			return
		}
		list, total, err := svc.AdminList(c.Request.Context(), c.Query("status"), page)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, page, total)
	}
}

func RespondToQuotation(svc *quotes.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/quotations/:id/respond"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in quotes.RespondInput
		if !bindJSON(c, &in) {
			return
		}
		q, err := svc.Respond(c.Request.Context(), caller.UserID, id, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}
