package notify

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Inbox serves the admin notification screens.
type Inbox struct {
	repo   store.NotificationStore
	logger *zap.Logger
}

func NewInbox(repo store.NotificationStore, logger *zap.Logger) *Inbox {
	return &Inbox{repo: repo, logger: logger.Named("inbox")}
}

func (i *Inbox) List(ctx context.Context, f store.NotificationFilter) ([]models.Notification, int64, error) {
	if f.Priority != "" && !models.ValidNotificationPriority(f.Priority) {
		return nil, 0, apperr.Validation("invalid priority", "priority must be one of low, medium, high, critical")
	}
	items, total, err := i.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list notifications")
	}
	return items, total, nil
}

func (i *Inbox) Stats(ctx context.Context) (models.NotificationStats, error) {
	stats, err := i.repo.Stats(ctx)
	if err != nil {
		return models.NotificationStats{}, apperr.Internal(err, "notification stats")
	}
	return stats, nil
}

func (i *Inbox) MarkRead(ctx context.Context, id, adminID primitive.ObjectID) (*models.Notification, error) {
	n, err := i.repo.MarkRead(ctx, id, adminID, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("notification not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "mark notification read")
	}
	return n, nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, adminID primitive.ObjectID) (int64, error) {
	n, err := i.repo.MarkAllRead(ctx, adminID, time.Now().UTC())
	if err != nil {
		return 0, apperr.Internal(err, "mark all notifications read")
	}
	return n, nil
}

func (i *Inbox) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := i.repo.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal(err, "delete notification")
	}
	return nil
}
