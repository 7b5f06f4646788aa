package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// respondWithError maps err onto the taxonomy. Internal failures are logged
// and answered with a generic message.
func respondWithError(c *gin.Context, logger *zap.Logger, route string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("request timed out", zap.String("route", route), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "request timed out"})
		return
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err, "unexpected error")
	}
	status := apperr.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("route", route), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}

	logger.Debug("returning error",
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("error", appErr.Message),
	)
	body := gin.H{"error": appErr.Message}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	if len(appErr.Data) > 0 {
		body["data"] = appErr.Data
	}
	c.AbortWithStatusJSON(status, body)
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gte":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, fieldError.Param()))
			case "eq":
				details = append(details, fmt.Sprintf("%s must equal %s", field, fieldError.Param()))
			case "email":
				details = append(details, fmt.Sprintf("%s must be a valid email", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": details,
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": []string{err.Error()}})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

func callerOf(c *gin.Context) (models.Caller, bool) {
	userID, role, ok := middleware.Caller(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Caller{}, false
	}
	return models.Caller{UserID: userID, Role: role}, true
}
