package catalog

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type ProductInput struct {
	Title            string                 `json:"title" binding:"required"`
	Description      string                 `json:"description" binding:"required"`
	CategoryID       string                 `json:"category" binding:"required"`
	Images           models.StringList      `json:"images"`
	Price            float64                `json:"price" binding:"gte=0"`
	DiscountPrice    float64                `json:"discountPrice" binding:"gte=0"`
	Stock            int                    `json:"stock" binding:"gte=0"`
	MinOrderQuantity int                    `json:"minOrderQuantity" binding:"gte=0"`
	Features         models.StringList      `json:"features"`
	Specifications   []models.Specification `json:"specifications"`
	Warranty         string                 `json:"warranty"`
	Status           string                 `json:"status"`
	Featured         bool                   `json:"featured"`
}

type ProductUpdate struct {
	Title            *string                 `json:"title"`
	Description      *string                 `json:"description"`
	CategoryID       *string                 `json:"category"`
	Images           *models.StringList      `json:"images"`
	Price            *float64                `json:"price"`
	DiscountPrice    *float64                `json:"discountPrice"`
	Stock            *int                    `json:"stock"`
	MinOrderQuantity *int                    `json:"minOrderQuantity"`
	Features         *models.StringList      `json:"features"`
	Specifications   *[]models.Specification `json:"specifications"`
	Warranty         *string                 `json:"warranty"`
	Status           *string                 `json:"status"`
	Featured         *bool                   `json:"featured"`
}

func decorate(products []models.Product) []models.Product {
	for i := range products {
		products[i].Decorate()
	}
	return products
}

// PublicProducts lists active products only.
func (s *Service) PublicProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	f.Statuses = []string{models.ProductStatusActive}
	return s.listProducts(ctx, f)
}

func (s *Service) AdminProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	if f.StockStatus != "" && f.StockStatus != models.StockStatusOut &&
		f.StockStatus != models.StockStatusLow && f.StockStatus != models.StockStatusIn {
		return nil, 0, apperr.Validation("invalid stockStatus")
	}
	return s.listProducts(ctx, f)
}

func (s *Service) listProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list products")
	}
	return decorate(products), total, nil
}

// GetProduct reads through the cache. With publicOnly set, products that
// are not active are reported missing.
func (s *Service) GetProduct(ctx context.Context, id primitive.ObjectID, publicOnly bool) (*models.Product, error) {
	p, ok := s.cache.GetProduct(ctx, id.Hex())
	if !ok {
		var err error
		p, err = s.products.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		if err != nil {
			return nil, apperr.Internal(err, "get product")
		}
		s.cache.SetProduct(ctx, p)
	}
	if publicOnly && p.Status != models.ProductStatusActive {
		return nil, apperr.NotFound("product not found")
	}
	p.Decorate()
	return p, nil
}

func (s *Service) requireCategory(ctx context.Context, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("validation failed", "category must be a valid id")
	}
	if _, err := s.categories.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return primitive.NilObjectID, apperr.Validation("validation failed", "category does not exist")
		}
		return primitive.NilObjectID, apperr.Internal(err, "get category")
	}
	return id, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	var details []string
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		details = append(details, "title is required")
	}
	if description == "" {
		details = append(details, "description is required")
	}
	if err := validateDiscount(in.Price, in.DiscountPrice); err != nil {
		details = append(details, err.Error())
	}
	if in.Stock < 0 {
		details = append(details, "stock must be greater than or equal to 0")
	}
	status := in.Status
	if status == "" {
		status = models.ProductStatusActive
	}
	if !models.ValidProductStatus(status) {
		details = append(details, "status must be one of active, inactive, draft")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("validation failed", details...)
	}

	categoryID, err := s.requireCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	minQty := in.MinOrderQuantity
	if minQty < 1 {
		minQty = 1
	}
	now := s.now().UTC()
	p := &models.Product{
		Title:            title,
		Description:      description,
		CategoryID:       categoryID,
		Images:           in.Images.Clean(),
		Price:            in.Price,
		DiscountPrice:    in.DiscountPrice,
		Stock:            in.Stock,
		MinOrderQuantity: minQty,
		Features:         in.Features.Clean(),
		Specifications:   in.Specifications,
		Warranty:         strings.TrimSpace(in.Warranty),
		Status:           status,
		Featured:         in.Featured,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err, "create product")
	}
	s.logger.Info("product created", zap.String("id", p.ID.Hex()), zap.String("title", p.Title))
	p.Decorate()
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id primitive.ObjectID, in ProductUpdate) (*models.Product, error) {
	existing, err := s.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get product")
	}

	patch := store.ProductPatch{UpdatedAt: s.now().UTC()}
	var details []string

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			details = append(details, "title cannot be empty")
		}
		patch.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			details = append(details, "description cannot be empty")
		}
		patch.Description = &description
	}
	if in.Price != nil || in.DiscountPrice != nil {
		resolved, err := resolveDiscountUpdate(existing.Price, existing.DiscountPrice, discountUpdate{
			Price:         in.Price,
			DiscountPrice: in.DiscountPrice,
		})
		if err != nil {
			details = append(details, err.Error())
		} else {
			patch.Price = &resolved.Price
			patch.DiscountPrice = &resolved.DiscountPrice
		}
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			details = append(details, "stock must be greater than or equal to 0")
		}
		patch.Stock = in.Stock
	}
	if in.Status != nil && !models.ValidProductStatus(*in.Status) {
		details = append(details, "status must be one of active, inactive, draft")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("validation failed", details...)
	}

	if in.CategoryID != nil {
		categoryID, err := s.requireCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		patch.CategoryID = &categoryID
	}
	if in.Images != nil {
		images := in.Images.Clean()
		patch.Images = &images
	}
	if in.Features != nil {
		features := in.Features.Clean()
		patch.Features = &features
	}
	if in.MinOrderQuantity != nil {
		minQty := *in.MinOrderQuantity
		if minQty < 1 {
			minQty = 1
		}
		patch.MinOrderQuantity = &minQty
	}
	patch.Specifications = in.Specifications
	patch.Warranty = in.Warranty
	patch.Status = in.Status
	patch.Featured = in.Featured

	updated, err := s.products.Update(ctx, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "update product")
	}
	s.cache.InvalidateProduct(ctx, id.Hex())
	updated.Decorate()
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal(err, "delete product")
	}
	s.cache.InvalidateProduct(ctx, id.Hex())
	s.logger.Info("product deleted", zap.String("id", id.Hex()))
	return nil
}

func (s *Service) BulkStatus(ctx context.Context, ids []primitive.ObjectID, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("validation failed", "productIds is required")
	}
	if !models.ValidProductStatus(status) {
		return 0, apperr.Validation("validation failed", "status must be one of active, inactive, draft")
	}
	n, err := s.products.SetStatus(ctx, ids, status)
	if err != nil {
		return 0, apperr.Internal(err, "update product status")
	}
	for _, id := range ids {
		s.cache.InvalidateProduct(ctx, id.Hex())
	}
	return n, nil
}
