package orders

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/inventory"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

// transitions is the normal flow. Admins may still force any status.
var transitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel.
func Cancellable(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusConfirmed
}

// MutateFunc inspects the freshly loaded order and returns the write to
// apply, or nil to leave it untouched. It runs once per attempt.
type MutateFunc func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error)

// Mutation is the committed result of Mutate.
type Mutation struct {
	Order    *models.Order
	Previous models.Order
	Changed  bool
}

// Mutate loads the order, applies fn's update conditionally on the loaded
// version and retries the whole transaction on a lost race.
func (s *Service) Mutate(ctx context.Context, id primitive.ObjectID, fn MutateFunc) (*Mutation, error) {
	var result Mutation
	err := store.RetryOnConflict(ctx, func(ctx context.Context) error {
		return s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
			result = Mutation{}
			current, err := s.store.Orders.Get(ctx, id)
			if err != nil {
				return err
			}
			result.Previous = *current
			update, err := fn(ctx, current)
			if err != nil {
				return err
			}
			if update == nil {
				result.Order = current
				return nil
			}
			if update.UpdatedAt.IsZero() {
				update.UpdatedAt = s.now().UTC()
			}
			updated, err := s.store.Orders.ApplyUpdate(ctx, id, current.Version, *update)
			if err != nil {
				return err
			}
			result.Order = updated
			result.Changed = true
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, asAppErr(err, "update order")
	}
	return &result, nil
}

// Cancel lets the owning customer cancel a pending or confirmed order. A
// held reservation goes back to stock.
func (s *Service) Cancel(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.Order, error) {
	var levels []inventory.Level
	m, err := s.Mutate(ctx, id, func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error) {
		levels = nil
		if o.CustomerID != caller.UserID {
			return nil, apperr.Forbidden("you can only cancel your own orders")
		}
		if !Cancellable(o.Status) {
			return nil, apperr.Validation("order cannot be cancelled", "only pending or confirmed orders can be cancelled")
		}
		now := s.now().UTC()
		status := models.OrderStatusCancelled
		update := &models.OrderUpdate{
			Status: &status,
			History: &models.StatusEntry{
				Status:    status,
				UpdatedBy: &caller.UserID,
				UpdatedAt: now,
				Note:      "Cancelled by customer",
			},
			UpdatedAt: now,
		}
		if o.StockReserved {
			released, err := s.inventory.Release(ctx, inventory.LinesOf(o.Items))
			if err != nil {
				return nil, err
			}
			levels = released
			reserved := false
			update.StockReserved = &reserved
		}
		return update, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, m, levels)
	s.logger.Info("order cancelled by customer",
		zap.String("orderNumber", m.Order.OrderNumber),
		zap.Bool("stockReleased", len(levels) > 0),
	)
	return m.Order, nil
}

type StatusInput struct {
	Status         string  `json:"status" binding:"required"`
	AdminNotes     *string `json:"adminNotes"`
	TrackingNumber *string `json:"trackingNumber"`
	Note           string  `json:"note"`
}

// UpdateStatus is the admin path. Any enum value is accepted; values off the
// normal flow are logged as forced.
func (s *Service) UpdateStatus(ctx context.Context, adminID, id primitive.ObjectID, in StatusInput) (*models.Order, error) {
	status := strings.TrimSpace(in.Status)
	if !models.ValidOrderStatus(status) {
		return nil, apperr.Validation("invalid status", "status must be one of "+strings.Join(models.OrderStatuses, ", "))
	}

	var levels []inventory.Level
	m, err := s.Mutate(ctx, id, func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error) {
		levels = nil
		if o.Status != status && !CanTransition(o.Status, status) {
			s.logger.Warn("forced order status transition",
				zap.String("orderNumber", o.OrderNumber),
				zap.String("from", o.Status),
				zap.String("to", status),
				zap.String("admin", adminID.Hex()),
			)
		}

		now := s.now().UTC()
		note := strings.TrimSpace(in.Note)
		if note == "" {
			note = "Status updated to " + status
		}
		update := &models.OrderUpdate{
			Status:         &status,
			AdminNotes:     in.AdminNotes,
			TrackingNumber: in.TrackingNumber,
			History: &models.StatusEntry{
				Status:    status,
				UpdatedBy: &adminID,
				UpdatedAt: now,
				Note:      note,
			},
			UpdatedAt: now,
		}

		switch status {
		case models.OrderStatusShipped:
			update.ShippedAt = &now
		case models.OrderStatusDelivered:
			update.DeliveredAt = &now
			completed := models.PaymentStatusCompleted
			update.PaymentStatus = &completed
			if o.Payment.PaidAt == nil {
				update.PaidAt = &now
			}
		case models.OrderStatusCancelled:
			if o.StockReserved {
				released, err := s.inventory.Release(ctx, inventory.LinesOf(o.Items))
				if err != nil {
					return nil, err
				}
				levels = released
				reserved := false
				update.StockReserved = &reserved
			}
		}
		return update, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, m, levels)
	s.logger.Info("order status updated",
		zap.String("orderNumber", m.Order.OrderNumber),
		zap.String("from", m.Previous.Status),
		zap.String("to", m.Order.Status),
		zap.String("admin", adminID.Hex()),
	)
	return m.Order, nil
}

func (s *Service) afterStatusChange(ctx context.Context, m *Mutation, released []inventory.Level) {
	s.inventory.Invalidate(ctx, released)
	if !m.Changed {
		return
	}
	metrics.OrderStatusChanged(m.Order.Status)
	s.notifier.Emit(ctx, notify.OrderStatusUpdate(*m.Order, m.Previous.Status))
}
