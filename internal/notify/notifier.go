// Package notify records admin-facing events. Emission never fails the
// caller: sink errors are logged and dropped.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/settings"
	"storefront/internal/store"
)

type Sink interface {
	Publish(ctx context.Context, n models.Notification) error
}

type Notifier struct {
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewNotifier(logger *zap.Logger, sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks, logger: logger.Named("notify"), now: time.Now}
}

// Emit hands n to every sink unless the settings snapshot in ctx disables
// its type.
func (n *Notifier) Emit(ctx context.Context, note models.Notification) {
	if n == nil {
		return
	}
	if !enabled(settings.FromContext(ctx).Notifications, note.Type) {
		n.logger.Debug("notification disabled", zap.String("type", note.Type))
		return
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = n.now().UTC()
	}
	if note.Priority == "" {
		note.Priority = models.PriorityMedium
	}
	for _, sink := range n.sinks {
		if err := sink.Publish(ctx, note); err != nil {
			n.logger.Warn("notification sink failed",
				zap.String("type", note.Type),
				zap.String("title", note.Title),
				zap.Error(err),
			)
		}
	}
}

func enabled(t models.NotificationToggles, kind string) bool {
	switch kind {
	case models.NotificationNewOrder:
		return t.NewOrders
	case models.NotificationLowStock, models.NotificationStockAlert:
		return t.LowStock
	case models.NotificationPaymentReceived:
		return t.Payments
	case models.NotificationOrderStatusUpdate:
		return t.StatusUpdates
	default:
		return true
	}
}

// StoreSink writes notifications to the admin inbox collection.
type StoreSink struct {
	repo store.NotificationStore
}

func NewStoreSink(repo store.NotificationStore) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Publish(ctx context.Context, n models.Notification) error {
	return s.repo.Insert(ctx, &n)
}
