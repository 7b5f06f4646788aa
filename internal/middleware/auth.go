package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	ContextUserID = "userId"
	ContextRole   = "role"
)

// AuthGuard validates the bearer token and stores the caller's id and role
// in the gin context. With allowedRoles set, other roles get 403.
func AuthGuard(secret string, logger *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	logger = logger.Named("auth")
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userIDValue, _ := claims["userId"].(string)
		userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userIDValue))
		if err != nil {
			logger.Debug("userId claim invalid", zap.String("userId", userIDValue))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		role, _ := claims["role"].(string)
		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

func UserAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return AuthGuard(secret, logger)
}

func AdminAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return AuthGuard(secret, logger, "admin")
}

// Caller returns the identity stored by AuthGuard.
func Caller(c *gin.Context) (primitive.ObjectID, string, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	return userID, c.GetString(ContextRole), true
}
