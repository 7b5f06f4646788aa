package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

const recentOrderCount = 5

type RoleStats struct {
	Total  int64 `json:"total"`
	Admins int64 `json:"admin"`
	Users  int64 `json:"user"`
}

// CustomerStats rolls up a customer's order history.
type CustomerStats struct {
	TotalOrders   int64      `json:"totalOrders"`
	TotalSpent    float64    `json:"totalSpent"`
	AvgOrderValue float64    `json:"avgOrderValue"`
	LastOrderDate *time.Time `json:"lastOrderDate,omitempty"`
}

type CustomerSummary struct {
	*models.User
	Stats CustomerStats `json:"stats"`
}

type CustomerDetail struct {
	Customer     *models.User   `json:"customer"`
	Stats        CustomerStats  `json:"stats"`
	RecentOrders []models.Order `json:"recentOrders"`
}

func (s *Service) ListUsers(ctx context.Context, f store.UserFilter) ([]models.User, int64, RoleStats, error) {
	if f.Role != "" && !models.ValidRole(f.Role) {
		return nil, 0, RoleStats{}, apperr.Validation("invalid role filter")
	}
	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, 0, RoleStats{}, apperr.Internal(err, "list users")
	}
	var stats RoleStats
	if stats.Admins, err = s.users.CountByRole(ctx, models.RoleAdmin); err != nil {
		return nil, 0, RoleStats{}, apperr.Internal(err, "count admins")
	}
	if stats.Users, err = s.CountCustomers(ctx); err != nil {
		return nil, 0, RoleStats{}, apperr.Internal(err, "count customers")
	}
	stats.Total = stats.Admins + stats.Users
	return users, total, stats, nil
}

func (s *Service) ListCustomers(ctx context.Context, f store.UserFilter) ([]CustomerSummary, int64, error) {
	f.Role = models.RoleUser
	customers, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list customers")
	}
	out := make([]CustomerSummary, 0, len(customers))
	for i := range customers {
		stats, _, err := s.customerStats(ctx, customers[i].ID, 1)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, CustomerSummary{User: &customers[i], Stats: stats})
	}
	return out, total, nil
}

func (s *Service) Customer(ctx context.Context, id primitive.ObjectID) (*CustomerDetail, error) {
	customer, err := s.customer(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, recent, err := s.customerStats(ctx, id, recentOrderCount)
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{Customer: customer, Stats: stats, RecentOrders: recent}, nil
}

// customerStats also returns the latest recent orders, newest first.
func (s *Service) customerStats(ctx context.Context, id primitive.ObjectID, recent int) (CustomerStats, []models.Order, error) {
	totals, err := s.orders.CustomerStats(ctx, id)
	if err != nil {
		return CustomerStats{}, nil, apperr.Internal(err, "customer stats")
	}
	orders, _, err := s.orders.List(ctx, store.OrderFilter{
		CustomerID: &id,
		Page:       store.Page{Page: 1, Limit: recent},
	})
	if err != nil {
		return CustomerStats{}, nil, apperr.Internal(err, "recent orders")
	}
	stats := CustomerStats{TotalOrders: totals.TotalOrders, TotalSpent: totals.TotalSpent}
	if totals.TotalOrders > 0 {
		avg := decimal.NewFromFloat(totals.TotalSpent).Div(decimal.NewFromInt(totals.TotalOrders)).Round(2)
		stats.AvgOrderValue = avg.InexactFloat64()
	}
	if len(orders) > 0 {
		last := orders[0].CreatedAt
		stats.LastOrderDate = &last
	}
	return stats, orders, nil
}

func (s *Service) customer(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && user.Role != models.RoleUser) {
		return nil, apperr.NotFound("customer not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load customer")
	}
	return user, nil
}

// ApproveCustomer unlocks business features of a B2B account.
func (s *Service) ApproveCustomer(ctx context.Context, adminID, id primitive.ObjectID) (*models.User, error) {
	customer, err := s.customer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !customer.IsB2B() {
		return nil, apperr.Validation("only B2B customers require approval")
	}
	now := s.now().UTC()
	status := models.ApprovalApproved
	updated, err := s.updateAccount(ctx, id, store.AccountPatch{
		ApprovalStatus: &status,
		ApprovedBy:     &adminID,
		ApprovedAt:     &now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer approved", zap.String("customer", id.Hex()), zap.String("admin", adminID.Hex()))
	return updated, nil
}

func (s *Service) RejectCustomer(ctx context.Context, adminID, id primitive.ObjectID, reason string) (*models.User, error) {
	customer, err := s.customer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !customer.IsB2B() {
		return nil, apperr.Validation("only B2B customers require approval")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Not specified"
	}
	now := s.now().UTC()
	status := models.ApprovalRejected
	updated, err := s.updateAccount(ctx, id, store.AccountPatch{
		ApprovalStatus:  &status,
		RejectedBy:      &adminID,
		RejectedAt:      &now,
		RejectionReason: &reason,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer rejected", zap.String("customer", id.Hex()), zap.String("admin", adminID.Hex()))
	return updated, nil
}

// UpdateRole changes an account's role. Admins cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, adminID, id primitive.ObjectID, role string) (*models.User, error) {
	role = strings.TrimSpace(role)
	if !models.ValidRole(role) {
		return nil, apperr.Validation("invalid role", "role must be user or admin")
	}
	if id == adminID && role != models.RoleAdmin {
		return nil, apperr.Validation("you cannot remove your own admin role")
	}
	updated, err := s.updateAccount(ctx, id, store.AccountPatch{Role: &role, UpdatedAt: s.now().UTC()})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user role updated",
		zap.String("user", id.Hex()),
		zap.String("role", role),
		zap.String("admin", adminID.Hex()),
	)
	return updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, adminID, id primitive.ObjectID) error {
	if id == adminID {
		return apperr.Validation("you cannot delete your own account")
	}
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal(err, "delete user")
	}
	s.logger.Info("user deleted", zap.String("user", id.Hex()), zap.String("admin", adminID.Hex()))
	return nil
}

func (s *Service) updateAccount(ctx context.Context, id primitive.ObjectID, patch store.AccountPatch) (*models.User, error) {
	updated, err := s.users.UpdateAccount(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "update account")
	}
	return updated, nil
}
