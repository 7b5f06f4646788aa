package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/users"
)

func GetAddresses(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/addresses"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		addresses, err := svc.Addresses(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func AddAddress(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/addresses"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in users.AddressInput
		if !bindJSON(c, &in) {
			return
		}
		address, err := svc.AddAddress(c.Request.Context(), caller.UserID, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

func UpdateAddress(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/addresses/:id"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in users.AddressInput
		if !bindJSON(c, &in) {
			return
		}
		address, err := svc.UpdateAddress(c.Request.Context(), caller.UserID, strings.TrimSpace(c.Param("id")), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

func DeleteAddress(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/addresses/:id"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		addresses, err := svc.DeleteAddress(c.Request.Context(), caller.UserID, strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func SetDefaultAddress(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/addresses/:id/default"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		addresses, err := svc.SetDefaultAddress(c.Request.Context(), caller.UserID, strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

func GetWishlist(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/wishlist"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		wishlist, err := svc.Wishlist(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, wishlist)
	}
}

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func AddToWishlist(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/wishlist"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var req wishlistRequest
		if !bindJSON(c, &req) {
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}
		wishlist, err := svc.AddToWishlist(c.Request.Context(), caller.UserID, productID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, wishlist)
	}
}

func RemoveFromWishlist(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/wishlist/:productId"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		productID, ok := idParam(c, "productId")
		if !ok {
			return
		}
		wishlist, err := svc.RemoveFromWishlist(c.Request.Context(), caller.UserID, productID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, wishlist)
	}
}
