package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type notificationStore struct{ db *DB }

func (s notificationStore) Insert(ctx context.Context, n *models.Notification) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	remember(ctx, s.db, "notifications", s.db.notifications, n.ID, cloneNotification)
	s.db.notifications[n.ID] = cloneNotification(*n)
	return nil
}

func (s notificationStore) List(_ context.Context, f store.NotificationFilter) ([]models.Notification, int64, error) {
	s.db.mu.RLock()
	var matched []models.Notification
	for _, n := range s.db.notifications {
		if f.Matches(n) {
			matched = append(matched, cloneNotification(n))
		}
	}
	s.db.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Page), int64(len(matched)), nil
}

func (s notificationStore) MarkRead(ctx context.Context, id, by primitive.ObjectID, at time.Time) (*models.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	remember(ctx, s.db, "notifications", s.db.notifications, id, cloneNotification)
	n.IsRead = true
	n.ReadAt = &at
	n.ReadBy = &by
	s.db.notifications[id] = n
	out := cloneNotification(n)
	return &out, nil
}

func (s notificationStore) MarkAllRead(ctx context.Context, by primitive.ObjectID, at time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var changed int64
	for id, n := range s.db.notifications {
		if n.IsRead {
			continue
		}
		remember(ctx, s.db, "notifications", s.db.notifications, id, cloneNotification)
		readAt, readBy := at, by
		n.IsRead = true
		n.ReadAt = &readAt
		n.ReadBy = &readBy
		s.db.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (s notificationStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.notifications[id]; !ok {
		return store.ErrNotFound
	}
	remember(ctx, s.db, "notifications", s.db.notifications, id, cloneNotification)
	delete(s.db.notifications, id)
	return nil
}

func (s notificationStore) Stats(_ context.Context) (models.NotificationStats, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var stats models.NotificationStats
	for _, n := range s.db.notifications {
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		switch n.Priority {
		case models.PriorityHigh:
			stats.High++
		case models.PriorityCritical:
			stats.Critical++
		}
	}
	return stats, nil
}

type settingsStore struct{ db *DB }

func (s settingsStore) Load(_ context.Context) (*models.Settings, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	if s.db.settings == nil {
		return nil, store.ErrNotFound
	}
	out := *s.db.settings
	return &out, nil
}

func (s settingsStore) Save(ctx context.Context, settings *models.Settings) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if log := s.db.txLog(ctx); log != nil {
		prev := s.db.settings
		log.track("settings", models.SettingsKey, func() { s.db.settings = prev })
	}
	saved := *settings
	saved.ID = models.SettingsKey
	s.db.settings = &saved
	return nil
}
