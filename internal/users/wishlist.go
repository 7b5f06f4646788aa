package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Wishlist returns the user's wishlist with product summaries. Entries whose
// product is gone are dropped from the stored list.
func (s *Service) Wishlist(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	list, err := s.wishlists.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Wishlist{UserID: userID, Items: []models.WishlistItem{}}, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "load wishlist")
	}
	if len(list.Items) == 0 {
		list.Items = []models.WishlistItem{}
		return list, nil
	}

	ids := make([]primitive.ObjectID, len(list.Items))
	for i, item := range list.Items {
		ids[i] = item.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "load wishlist products")
	}

	kept := make([]models.WishlistItem, 0, len(list.Items))
	var dangling []primitive.ObjectID
	for _, item := range list.Items {
		p, ok := products[item.ProductID]
		if !ok {
			dangling = append(dangling, item.ProductID)
			continue
		}
		item.Product = p.Summary()
		kept = append(kept, item)
	}
	if len(dangling) > 0 {
		if err := s.wishlists.RemoveItems(ctx, userID, dangling...); err != nil {
			s.logger.Warn("wishlist prune failed", zap.String("user", userID.Hex()), zap.Error(err))
		}
	}
	list.Items = kept
	return list, nil
}

func (s *Service) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.Wishlist, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(err, "load product")
	}
	err := s.wishlists.AddItem(ctx, userID, models.WishlistItem{ProductID: productID, AddedAt: s.now().UTC()})
	if err != nil {
		return nil, apperr.Internal(err, "add wishlist item")
	}
	return s.Wishlist(ctx, userID)
}

func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.Wishlist, error) {
	if err := s.wishlists.RemoveItems(ctx, userID, productID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "remove wishlist item")
	}
	return s.Wishlist(ctx, userID)
}
