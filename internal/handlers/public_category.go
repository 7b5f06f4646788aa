package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/store"
)

func GetCategories(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories"

		categories, err := svc.ListCategories(c.Request.Context(), store.CategoryFilter{
			ActiveOnly: true,
			Search:     strings.TrimSpace(c.Query("search")),
		})
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func GetCategory(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		category, err := svc.GetCategory(c.Request.Context(), id, true)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}
