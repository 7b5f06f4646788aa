package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/store"
	"storefront/internal/users"
)

func userFilterFromQuery(c *gin.Context) (store.UserFilter, bool) {
	page, ok := pageFromQuery(c)
	if !ok {
		return store.UserFilter{}, false
	}
	f := store.UserFilter{
		Role:           strings.TrimSpace(c.Query("role")),
		CustomerType:   strings.ToUpper(strings.TrimSpace(c.Query("customerType"))),
		ApprovalStatus: strings.TrimSpace(c.Query("approvalStatus")),
		Search:         strings.TrimSpace(c.Query("search")),
		Page:           page,
	}
	if f.Role == "all" {
		f.Role = ""
	}
	if f.CustomerType == "ALL" {
		f.CustomerType = ""
	}
	if f.ApprovalStatus == "all" {
		f.ApprovalStatus = ""
	}
	return f, true
}

func AdminGetUsers(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/users"

		f, ok := userFilterFromQuery(c)
		if !ok {
			return
		}
		list, total, stats, err := svc.ListUsers(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":       list,
			"pagination": newPagination(f.Page, total),
			"stats":      stats,
		})
	}
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func UpdateUserRole(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/users/:id/role"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req roleRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := svc.UpdateRole(c.Request.Context(), caller.UserID, id, req.Role)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func DeleteUser(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/users/:id"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteUser(c.Request.Context(), caller.UserID, id); err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	}
}

func AdminGetCustomers(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/customers"

		f, ok := userFilterFromQuery(c)
		if !ok {
			return
		}
		list, total, err := svc.ListCustomers(c.Request.Context(), f)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		respondPage(c, list, f.Page, total)
	}
}

func AdminGetCustomer(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/customers/:id"

		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		detail, err := svc.Customer(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func ApproveCustomer(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/customers/:id/approve"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		user, err := svc.ApproveCustomer(c.Request.Context(), caller.UserID, id)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func RejectCustomer(svc *users.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/customers/:id/reject"

		caller, ok := callerOf(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req rejectRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		user, err := svc.RejectCustomer(c.Request.Context(), caller.UserID, id, req.Reason)
		if err != nil {
			respondWithError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
