package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/models"
)

func AdminGetProducts(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products"

		f, ok := parseProductFilter(c)
		if !ok {
			return
		}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidProductStatus(status) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			f.Statuses = []string{status}
		}
		products, total, err := svc.AdminProducts(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, products, f.Page, total)
	}
}

func AdminGetProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/products/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		product, err := svc.GetProduct(c.Request.Context(), id, false)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func CreateProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/products"

		var in catalog.ProductInput
		if !bindJSON(c, &in) {
			return
		}
		product, err := svc.CreateProduct(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/products/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var in catalog.ProductUpdate
		if !bindJSON(c, &in) {
			return
		}
		product, err := svc.UpdateProduct(c.Request.Context(), id, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/products/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1"`
	Status string   `json:"status" binding:"required"`
}

func BulkProductStatus(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/products/bulk-status"

		var req bulkStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		ids := make([]primitive.ObjectID, 0, len(req.IDs))
		for _, raw := range req.IDs {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id", "details": []string{raw}})
				return
			}
			ids = append(ids, id)
		}
		modified, err := svc.BulkStatus(c.Request.Context(), ids, strings.TrimSpace(req.Status))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"modified": modified})
	}
}
