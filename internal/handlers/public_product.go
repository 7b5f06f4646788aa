package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/store"
)

// parseProductFilter reads the listing query shared by the public and admin
// product routes. It aborts the request on malformed input.
func parseProductFilter(c *gin.Context) (store.ProductFilter, bool) {
	page, ok := pageFromQuery(c)
	if !ok {
		return store.ProductFilter{}, false
	}
	f := store.ProductFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.TrimSpace(c.Query("sort")),
		Page:   page,
	}

	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return store.ProductFilter{}, false
		}
		f.CategoryID = &id
	}
	if raw := strings.TrimSpace(c.Query("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid featured"})
			return store.ProductFilter{}, false
		}
		f.Featured = &featured
	}
	for name, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
			return store.ProductFilter{}, false
		}
		*dst = &v
	}
	if raw := strings.TrimSpace(c.Query("stockStatus")); raw != "" {
		switch raw {
		case models.StockStatusIn, models.StockStatusLow, models.StockStatusOut:
			f.StockStatus = raw
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid stockStatus"})
			return store.ProductFilter{}, false
		}
	}
	return f, true
}

func GetProducts(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"

		f, ok := parseProductFilter(c)
		if !ok {
			return
		}
		products, total, err := svc.PublicProducts(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, products, f.Page, total)
	}
}

func GetProduct(svc *catalog.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		product, err := svc.GetProduct(c.Request.Context(), id, true)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
