package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/store"
)

func AdminGetCategories(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/categories"

		categories, err := svc.ListCategories(c.Request.Context(), store.CategoryFilter{
			Search: strings.TrimSpace(c.Query("search")),
		})
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func CreateCategory(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/categories"

		var in catalog.CategoryInput
		if !bindJSON(c, &in) {
			return
		}
		category, err := svc.CreateCategory(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func UpdateCategory(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/categories/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in catalog.CategoryInput
		if !bindJSON(c, &in) {
			return
		}
		category, err := svc.UpdateCategory(c.Request.Context(), id, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func DeleteCategory(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/categories/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteCategory(c.Request.Context(), id); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
	}
}
