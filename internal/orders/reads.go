package orders

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// ListForUser returns the caller's own orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID, status string, page store.Page) ([]models.Order, int64, error) {
	status = strings.TrimSpace(status)
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, 0, apperr.Validation("invalid status filter")
	}
	orders, total, err := s.store.Orders.List(ctx, store.OrderFilter{
		CustomerID: &userID,
		Status:     status,
		Sort:       store.SortNewest,
		Page:       page.Normalize(),
	})
	if err != nil {
		return nil, 0, apperr.Internal(err, "list orders")
	}
	if err := s.populateSlice(ctx, orders, false); err != nil {
		return nil, 0, apperr.Internal(err, "populate orders")
	}
	return orders, total, nil
}

func (s *Service) StatsForUser(ctx context.Context, userID primitive.ObjectID) (models.OrderStats, error) {
	stats, err := s.store.Orders.CustomerStats(ctx, userID)
	if err != nil {
		return models.OrderStats{}, apperr.Internal(err, "order stats")
	}
	return stats, nil
}

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(order.CustomerID) {
		return nil, apperr.Forbidden("access denied")
	}
	if err := s.populate(ctx, []*models.Order{order}, caller.IsAdmin()); err != nil {
		return nil, apperr.Internal(err, "populate order")
	}
	return order, nil
}

// Track is the unauthenticated lookup by order number.
func (s *Service) Track(ctx context.Context, number string) (*models.OrderTracking, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, apperr.Validation("order number is required")
	}
	order, err := s.store.Orders.GetByNumber(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "track order")
	}
	tracking := order.Tracking()
	return &tracking, nil
}

func (s *Service) AdminList(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	if f.Status != "" && !models.ValidOrderStatus(f.Status) {
		return nil, 0, apperr.Validation("invalid status filter")
	}
	if f.PaymentStatus != "" && !models.ValidPaymentStatus(f.PaymentStatus) {
		return nil, 0, apperr.Validation("invalid payment status filter")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, 0, apperr.Validation("invalid date range", "from must be before to")
	}
	f.Page = f.Page.Normalize()
	orders, total, err := s.store.Orders.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list orders")
	}
	if err := s.populateSlice(ctx, orders, true); err != nil {
		return nil, 0, apperr.Internal(err, "populate orders")
	}
	return orders, total, nil
}

func (s *Service) AdminGet(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*models.Order{order}, true); err != nil {
		return nil, apperr.Internal(err, "populate order")
	}
	return order, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load order")
	}
	return order, nil
}

func (s *Service) populateSlice(ctx context.Context, orders []models.Order, withCustomer bool) error {
	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	return s.populate(ctx, ptrs, withCustomer)
}

// populate joins product summaries into the lines and, when asked, the
// customer summary. Products deleted since leave the snapshot alone.
func (s *Service) populate(ctx context.Context, orders []*models.Order, withCustomer bool) error {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, item := range o.Items {
			if _, ok := seen[item.ProductID]; !ok {
				seen[item.ProductID] = struct{}{}
				ids = append(ids, item.ProductID)
			}
		}
	}
	if len(ids) > 0 {
		products, err := s.store.Products.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, o := range orders {
			for i := range o.Items {
				if p, ok := products[o.Items[i].ProductID]; ok {
					o.Items[i].Product = p.Summary()
				}
			}
		}
	}

	if !withCustomer {
		return nil
	}
	users := map[primitive.ObjectID]*models.UserSummary{}
	for _, o := range orders {
		summary, ok := users[o.CustomerID]
		if !ok {
			u, err := s.store.Users.Get(ctx, o.CustomerID)
			switch {
			case errors.Is(err, store.ErrNotFound):
			case err != nil:
				return err
			default:
				summary = u.Summary()
			}
			users[o.CustomerID] = summary
		}
		o.Customer = summary
	}
	return nil
}
