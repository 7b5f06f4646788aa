// Package inventory is the only writer of product stock after creation.
// Reservations use conditional decrements so stock never goes negative.
package inventory

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/settings"
	"storefront/internal/store"
)

type Line struct {
	ProductID primitive.ObjectID
	Title     string
	Quantity  int
}

// Level is a product's stock right after a change.
type Level struct {
	ProductID primitive.ObjectID
	Title     string
	Stock     int
}

// LinesOf converts order items into reservation lines.
func LinesOf(items []models.OrderItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{ProductID: item.ProductID, Title: item.ProductInfo.Title, Quantity: item.Quantity}
	}
	return lines
}

type Service struct {
	products store.ProductStore
	cache    cache.ProductCache
	notifier *notify.Notifier
	logger   *zap.Logger
}

func NewService(products store.ProductStore, productCache cache.ProductCache, notifier *notify.Notifier, logger *zap.Logger) *Service {
	if productCache == nil {
		productCache = cache.Nop{}
	}
	return &Service{
		products: products,
		cache:    productCache,
		notifier: notifier,
		logger:   logger.Named("inventory"),
	}
}

// Reserve takes every line or none. When a line cannot be taken, the lines
// already taken are given back before the error is returned.
func (s *Service) Reserve(ctx context.Context, lines []Line) ([]Level, error) {
	levels := make([]Level, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			s.compensate(ctx, lines[:i])
			return nil, apperr.Validation("validation failed", "quantity must be at least 1")
		}
		stock, err := s.products.AdjustStock(ctx, line.ProductID, -line.Quantity)
		if err != nil {
			s.compensate(ctx, lines[:i])
			return nil, s.reserveError(ctx, line, err)
		}
		levels = append(levels, Level{ProductID: line.ProductID, Title: line.Title, Stock: stock})
	}
	s.logger.Debug("stock reserved", zap.Int("lines", len(lines)))
	return levels, nil
}

func (s *Service) reserveError(ctx context.Context, line Line, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("product %s not found", line.ProductID.Hex())
	case errors.Is(err, store.ErrInsufficientStock):
		available := 0
		if p, getErr := s.products.Get(ctx, line.ProductID); getErr == nil {
			available = p.Stock
			if line.Title == "" {
				line.Title = p.Title
			}
		}
		return apperr.InsufficientStock(line.ProductID.Hex(), line.Title, available, line.Quantity)
	default:
		return apperr.Internal(err, "reserve stock")
	}
}

func (s *Service) compensate(ctx context.Context, taken []Line) {
	if len(taken) == 0 {
		return
	}
	if _, err := s.Release(ctx, taken); err != nil {
		s.logger.Error("stock compensation failed", zap.Error(err))
	}
}

// Release puts stock back. Products deleted since the reservation are
// skipped.
func (s *Service) Release(ctx context.Context, lines []Line) ([]Level, error) {
	levels := make([]Level, 0, len(lines))
	var firstErr error
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		stock, err := s.products.AdjustStock(ctx, line.ProductID, line.Quantity)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.Warn("release skipped for missing product", zap.String("productId", line.ProductID.Hex()))
			continue
		case err != nil:
			if firstErr == nil {
				firstErr = apperr.Internal(err, "release stock")
			}
			continue
		}
		levels = append(levels, Level{ProductID: line.ProductID, Title: line.Title, Stock: stock})
	}
	return levels, firstErr
}

// Invalidate drops the cached copies of the changed products. Call it after
// the surrounding transaction has committed.
func (s *Service) Invalidate(ctx context.Context, levels []Level) {
	for _, level := range levels {
		s.cache.InvalidateProduct(ctx, level.ProductID.Hex())
	}
}

// Settle follows a committed reservation: cached products are dropped and
// low levels raise alerts.
func (s *Service) Settle(ctx context.Context, levels []Level) {
	s.Invalidate(ctx, levels)
	s.CheckLowStock(ctx, levels)
}

// CheckLowStock alerts once per product whose level is at or below the
// configured threshold.
func (s *Service) CheckLowStock(ctx context.Context, levels []Level) {
	threshold := settings.FromContext(ctx).LowStockThreshold
	latest := map[primitive.ObjectID]Level{}
	order := []primitive.ObjectID{}
	for _, level := range levels {
		if _, seen := latest[level.ProductID]; !seen {
			order = append(order, level.ProductID)
		}
		latest[level.ProductID] = level
	}
	for _, id := range order {
		level := latest[id]
		if level.Stock > threshold {
			continue
		}
		metrics.StockLow()
		s.logger.Info("low stock",
			zap.String("productId", id.Hex()),
			zap.String("title", level.Title),
			zap.Int("stock", level.Stock),
			zap.Int("threshold", threshold),
		)
		s.notifier.Emit(ctx, notify.LowStock(id, level.Title, level.Stock, threshold))
	}
}
