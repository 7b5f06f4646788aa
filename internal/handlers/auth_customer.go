package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/users"
)

func Register(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"

		var in users.RegisterInput
		if !bindJSON(c, &in) {
			return
		}
		session, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

func Login(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"

		var in users.LoginInput
		if !bindJSON(c, &in) {
			return
		}
		session, err := svc.Login(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func GetMe(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		user, err := svc.Me(c.Request.Context(), caller.UserID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateMe(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/me"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in users.ProfileInput
		if !bindJSON(c, &in) {
			return
		}
		user, err := svc.UpdateProfile(c.Request.Context(), caller.UserID, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
