// Package settings holds the runtime business policy. The snapshot is read
// once at start, handed to each request through its context and swapped
// wholesale by the admin update.
package settings

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/store"
)

type ctxKey struct{}

func Defaults(cfg config.Config) models.Settings {
	return models.Settings{
		ID: models.SettingsKey,
		Company: models.CompanyInfo{
			Name: cfg.MerchantName,
		},
		Notifications: models.NotificationToggles{
			NewOrders:     true,
			LowStock:      true,
			Payments:      true,
			StatusUpdates: true,
		},
		ShippingRates: models.ShippingRates{
			Standard: 0,
			Express:  150,
			Priority: 300,
		},
		LowStockThreshold: 10,
		Currency:          "INR",
		MerchantUPI:       cfg.MerchantUPI,
		MerchantName:      cfg.MerchantName,
		TaxRate:           0,
	}
}

type Holder struct {
	current atomic.Pointer[models.Settings]
	repo    store.SettingsStore
	logger  *zap.Logger
}

// Load reads the stored settings, seeding and persisting the defaults when
// none exist yet.
func Load(ctx context.Context, repo store.SettingsStore, cfg config.Config, logger *zap.Logger) (*Holder, error) {
	h := &Holder{repo: repo, logger: logger.Named("settings")}

	stored, err := repo.Load(ctx)
	switch {
	case err == nil:
		h.current.Store(stored)
		return h, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	defaults := Defaults(cfg)
	defaults.UpdatedAt = time.Now().UTC()
	if err := repo.Save(ctx, &defaults); err != nil {
		return nil, err
	}
	h.logger.Info("seeded default settings")
	h.current.Store(&defaults)
	return h, nil
}

// NewHolder wraps a fixed snapshot, for tests and tools that skip storage.
func NewHolder(s models.Settings, repo store.SettingsStore, logger *zap.Logger) *Holder {
	h := &Holder{repo: repo, logger: logger.Named("settings")}
	h.current.Store(&s)
	return h
}

// Current returns a copy of the live snapshot.
func (h *Holder) Current() models.Settings {
	return *h.current.Load()
}

// Replace persists s and makes it visible to subsequent requests.
func (h *Holder) Replace(ctx context.Context, s models.Settings) (models.Settings, error) {
	s.ID = models.SettingsKey
	s.UpdatedAt = time.Now().UTC()
	if h.repo != nil {
		if err := h.repo.Save(ctx, &s); err != nil {
			return models.Settings{}, err
		}
	}
	h.current.Store(&s)
	h.logger.Info("settings replaced",
		zap.Int("lowStockThreshold", s.LowStockThreshold),
		zap.Float64("expressRate", s.ShippingRates.Express),
		zap.Float64("priorityRate", s.ShippingRates.Priority),
	)
	return s, nil
}

func WithContext(ctx context.Context, s models.Settings) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the snapshot attached to ctx, or the built-in
// defaults when there is none.
func FromContext(ctx context.Context) models.Settings {
	if s, ok := ctx.Value(ctxKey{}).(models.Settings); ok {
		return s
	}
	return Defaults(config.Config{MerchantName: "Storefront"})
}
