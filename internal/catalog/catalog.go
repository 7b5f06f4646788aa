// Package catalog owns categories and products. Stock levels are written by
// the inventory package only; this package sets the initial level and admin
// corrections.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Service struct {
	products   store.ProductStore
	categories store.CategoryStore
	cache      cache.ProductCache
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(products store.ProductStore, categories store.CategoryStore, productCache cache.ProductCache, logger *zap.Logger) *Service {
	if productCache == nil {
		productCache = cache.Nop{}
	}
	return &Service{
		products:   products,
		categories: categories,
		cache:      productCache,
		logger:     logger.Named("catalog"),
		now:        time.Now,
	}
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"isActive"`
}

func (s *Service) ListCategories(ctx context.Context, f store.CategoryFilter) ([]models.Category, error) {
	categories, err := s.categories.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "list categories")
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, id primitive.ObjectID, activeOnly bool) (*models.Category, error) {
	c, err := s.categories.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && activeOnly && !c.IsActive) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get category")
	}
	return c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("validation failed", "name is required")
	}
	now := s.now().UTC()
	c := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("category %q already exists", name)
		}
		return nil, apperr.Internal(err, "create category")
	}
	s.logger.Info("category created", zap.String("id", c.ID.Hex()), zap.String("name", c.Name))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	c, err := s.GetCategory(ctx, id, false)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("validation failed", "name is required")
	}
	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	c.Image = strings.TrimSpace(in.Image)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.categories.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperr.Conflict("category %q already exists", name)
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Internal(err, "update category")
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return apperr.Internal(err, "count category products")
	}
	if n > 0 {
		return apperr.Conflict("category still has %d products", n)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal(err, "delete category")
	}
	s.logger.Info("category deleted", zap.String("id", id.Hex()))
	return nil
}
