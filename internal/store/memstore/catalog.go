package memstore

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type productStore struct{ db *DB }

func (s productStore) Create(ctx context.Context, p *models.Product) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := s.db.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	remember(ctx, s.db, "products", s.db.products, p.ID, cloneProduct)
	s.db.products[p.ID] = cloneProduct(*p)
	return nil
}

func (s productStore) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (s productStore) GetMany(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.db.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (s productStore) List(_ context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	s.db.mu.RLock()
	var matched []models.Product
	for _, p := range s.db.products {
		if f.Matches(p) {
			matched = append(matched, cloneProduct(p))
		}
	}
	s.db.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case store.SortPriceAsc:
			return a.Price < b.Price
		case store.SortPriceDesc:
			return a.Price > b.Price
		case store.SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case store.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return page(matched, f.Page), int64(len(matched)), nil
}

func (s productStore) Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	remember(ctx, s.db, "products", s.db.products, id, cloneProduct)
	p = cloneProduct(p)
	patch.ApplyTo(&p)
	s.db.products[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func (s productStore) SetStatus(ctx context.Context, ids []primitive.ObjectID, status string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		p, ok := s.db.products[id]
		if !ok {
			continue
		}
		remember(ctx, s.db, "products", s.db.products, id, cloneProduct)
		p.Status = status
		s.db.products[id] = p
		n++
	}
	return n, nil
}

func (s productStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.products[id]; !ok {
		return store.ErrNotFound
	}
	remember(ctx, s.db, "products", s.db.products, id, cloneProduct)
	delete(s.db.products, id)
	return nil
}

func (s productStore) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return p.Stock, store.ErrInsufficientStock
	}
	remember(ctx, s.db, "products", s.db.products, id, cloneProduct)
	p.Stock += delta
	s.db.products[id] = p
	return p.Stock, nil
}

func (s productStore) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, p := range s.db.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s productStore) CountActive(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, p := range s.db.products {
		if p.Status == models.ProductStatusActive {
			n++
		}
	}
	return n, nil
}

type categoryStore struct{ db *DB }

func (s categoryStore) nameTaken(name string, except primitive.ObjectID) bool {
	for id, c := range s.db.categories {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (s categoryStore) Create(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if s.nameTaken(c.Name, c.ID) {
		return store.ErrDuplicate
	}
	remember(ctx, s.db, "categories", s.db.categories, c.ID, same[models.Category])
	s.db.categories[c.ID] = *c
	return nil
}

func (s categoryStore) Get(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s categoryStore) List(_ context.Context, f store.CategoryFilter) ([]models.Category, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := []models.Category{}
	for _, c := range s.db.categories {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (s categoryStore) Update(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.categories[c.ID]; !ok {
		return store.ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return store.ErrDuplicate
	}
	remember(ctx, s.db, "categories", s.db.categories, c.ID, same[models.Category])
	s.db.categories[c.ID] = *c
	return nil
}

func (s categoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.categories[id]; !ok {
		return store.ErrNotFound
	}
	remember(ctx, s.db, "categories", s.db.categories, id, same[models.Category])
	delete(s.db.categories, id)
	return nil
}
