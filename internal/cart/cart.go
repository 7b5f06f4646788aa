// Package cart manages the single active cart of each user. Every save is
// conditional on the version read, so concurrent edits of one cart cannot
// both win.
package cart

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

type Service struct {
	carts    store.CartStore
	products store.ProductStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(carts store.CartStore, products store.ProductStore, logger *zap.Logger) *Service {
	return &Service{carts: carts, products: products, logger: logger.Named("cart"), now: time.Now}
}

func (s *Service) load(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		now := s.now().UTC()
		return &models.Cart{UserID: userID, Items: []models.CartItem{}, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "load cart")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = s.now().UTC()
	err := s.carts.Save(ctx, c)
	if errors.Is(err, store.ErrVersionConflict) {
		return apperr.Conflict("cart was modified by another request, please retry")
	}
	if err != nil {
		return apperr.Internal(err, "save cart")
	}
	return nil
}

// populate joins product summaries and drops lines whose product is gone.
// It reports whether lines were dropped.
func (s *Service) populate(ctx context.Context, c *models.Cart) (bool, error) {
	ids := make([]primitive.ObjectID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return false, apperr.Internal(err, "load cart products")
	}
	kept := make([]models.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		item.Product = p.Summary()
		kept = append(kept, item)
	}
	pruned := len(kept) != len(c.Items)
	c.Items = kept
	c.Summarize()
	return pruned, nil
}

// Get returns the user's cart, creating it on first access.
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	pruned, err := s.populate(ctx, c)
	if err != nil {
		return nil, err
	}
	if pruned || c.Version == 0 {
		if err := s.save(ctx, c); err != nil {
			// Another request changed the cart meanwhile; serve what was read.
			s.logger.Debug("cart refresh not saved", zap.String("userId", userID.Hex()), zap.Error(err))
		}
	}
	return c, nil
}

func (s *Service) purchasable(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get product")
	}
	if p.Status != models.ProductStatusActive {
		return nil, apperr.NotFound("product not found")
	}
	return p, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperr.Validation("validation failed", "quantity must be at least 1")
	}
	p, err := s.purchasable(ctx, productID)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := c.ProductIndex(productID)
	wanted := quantity
	if idx >= 0 {
		wanted += c.Items[idx].Quantity
	}
	if wanted > p.Stock {
		return nil, apperr.InsufficientStock(p.ID.Hex(), p.Title, p.Stock, wanted)
	}

	if idx >= 0 {
		c.Items[idx].Quantity = wanted
		c.Items[idx].Price = p.EffectivePrice()
	} else {
		c.Items = append(c.Items, models.CartItem{
			ID:        primitive.NewObjectID(),
			ProductID: productID,
			Quantity:  quantity,
			Price:     p.EffectivePrice(),
			AddedAt:   s.now().UTC(),
		})
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.populate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("validation failed", "quantity must be at least 1")
	}
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := c.ItemIndex(itemID)
	if idx < 0 {
		return nil, apperr.NotFound("cart item not found")
	}

	item := &c.Items[idx]
	if quantity > item.Quantity {
		p, err := s.purchasable(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if quantity > p.Stock {
			return nil, apperr.InsufficientStock(p.ID.Hex(), p.Title, p.Stock, quantity)
		}
		item.Price = p.EffectivePrice()
	}
	item.Quantity = quantity

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.populate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := c.ItemIndex(itemID)
	if idx < 0 {
		return nil, apperr.NotFound("cart item not found")
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.populate(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Items = []models.CartItem{}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	c.Summarize()
	return c, nil
}
