package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/payments"
)

func VerifyUPIPayment(svc *payments.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /upi-payments/verify"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in payments.VerifyInput
		if !bindJSON(c, &in) {
			return
		}
		receipt, err := svc.VerifyUPI(c.Request.Context(), caller, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func GenerateUPIRequest(svc *payments.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /upi-payments/generate/:orderId"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		orderID, ok := idParam(c, "orderId")
		if !ok {
			return
		}
		req, err := svc.GenerateRequest(c.Request.Context(), caller, orderID)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

func CheckUPIStatus(svc *payments.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /upi-payments/status"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in payments.StatusInput
		if !bindJSON(c, &in) {
			return
		}
		report, err := svc.CheckStatus(c.Request.Context(), caller, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func CollectUPIQR(svc *payments.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /upi-payments/collect-qr"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		var in payments.CollectInput
		if !bindJSON(c, &in) {
			return
		}
		qr, err := svc.CollectQR(c.Request.Context(), caller, in)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, qr)
	}
}
