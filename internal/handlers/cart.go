package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/cart"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func GetCart(svc *cart.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		current, err := svc.Get(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func AddCartItem(svc *cart.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var req addCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}
		current, err := svc.AddItem(c.Request.Context(), caller.UserID, productID, req.Quantity)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func UpdateCartItem(svc *cart.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:itemId"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		itemID, ok := idParam(c, "itemId")
		if !ok {
			return
		}
		var req updateCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		current, err := svc.UpdateItem(c.Request.Context(), caller.UserID, itemID, req.Quantity)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func RemoveCartItem(svc *cart.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:itemId"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		itemID, ok := idParam(c, "itemId")
		if !ok {
			return
		}
		current, err := svc.RemoveItem(c.Request.Context(), caller.UserID, itemID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}

func ClearCart(svc *cart.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		current, err := svc.Clear(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, current)
	}
}
