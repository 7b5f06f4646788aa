package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type orderStore struct{ db *DB }

func (s orderStore) Create(ctx context.Context, o *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	for _, existing := range s.db.orders {
		if existing.OrderNumber == o.OrderNumber {
			return store.ErrDuplicate
		}
	}
	remember(ctx, s.db, "orders", s.db.orders, o.ID, cloneOrder)
	s.db.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s orderStore) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s orderStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, o := range s.db.orders {
		if o.OrderNumber == number {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s orderStore) List(_ context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	s.db.mu.RLock()
	var matched []models.Order
	for _, o := range s.db.orders {
		if f.Matches(o) {
			matched = append(matched, cloneOrder(o))
		}
	}
	s.db.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case store.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case store.SortTotalAsc:
			return a.Pricing.Total < b.Pricing.Total
		case store.SortTotalDesc:
			return a.Pricing.Total > b.Pricing.Total
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return page(matched, f.Page), int64(len(matched)), nil
}

func (s orderStore) ApplyUpdate(ctx context.Context, id primitive.ObjectID, expectedVersion int64, u models.OrderUpdate) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if o.Version != expectedVersion {
		return nil, store.ErrVersionConflict
	}
	remember(ctx, s.db, "orders", s.db.orders, id, cloneOrder)
	o = cloneOrder(o)
	u.Apply(&o)
	s.db.orders[id] = o
	out := cloneOrder(o)
	return &out, nil
}

func (s orderStore) CustomerStats(_ context.Context, customerID primitive.ObjectID) (models.OrderStats, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var stats models.OrderStats
	for _, o := range s.db.orders {
		if o.CustomerID != customerID {
			continue
		}
		stats.TotalOrders++
		stats.TotalSpent += o.Pricing.Total
		switch o.Status {
		case models.OrderStatusPending:
			stats.PendingOrders++
		case models.OrderStatusDelivered:
			stats.DeliveredOrders++
		}
	}
	return stats, nil
}

type counterStore struct{ db *DB }

func (s counterStore) Next(ctx context.Context, key string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	remember(ctx, s.db, "counters", s.db.counters, key, same[int64])
	s.db.counters[key]++
	return s.db.counters[key], nil
}

type reportStore struct{ db *DB }

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (s reportStore) PeriodTotals(_ context.Context, from, to time.Time) (models.PeriodTotals, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var totals models.PeriodTotals
	for _, o := range s.db.orders {
		if !inRange(o.CreatedAt, from, to) {
			continue
		}
		totals.Orders++
		if o.Payment.Status == models.PaymentStatusCompleted {
			totals.Revenue += o.Pricing.Total
		}
	}
	return totals, nil
}

func (s reportStore) TopProducts(_ context.Context, from, to time.Time, limit int) ([]models.ProductPerformance, error) {
	s.db.mu.RLock()
	byProduct := map[primitive.ObjectID]*models.ProductPerformance{}
	for _, o := range s.db.orders {
		if !inRange(o.CreatedAt, from, to) || o.Status == models.OrderStatusCancelled {
			continue
		}
		seen := map[primitive.ObjectID]bool{}
		for _, item := range o.Items {
			perf, ok := byProduct[item.ProductID]
			if !ok {
				perf = &models.ProductPerformance{ProductID: item.ProductID, Title: item.ProductInfo.Title}
				byProduct[item.ProductID] = perf
			}
			perf.Quantity += int64(item.Quantity)
			perf.Revenue += item.Price * float64(item.Quantity)
			if !seen[item.ProductID] {
				perf.Orders++
				seen[item.ProductID] = true
			}
		}
	}
	s.db.mu.RUnlock()

	out := make([]models.ProductPerformance, 0, len(byProduct))
	for _, perf := range byProduct {
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Revenue > out[j].Revenue
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s reportStore) DailySales(_ context.Context, from, to time.Time) ([]models.DailySales, error) {
	s.db.mu.RLock()
	byDay := map[string]*models.DailySales{}
	for _, o := range s.db.orders {
		if !inRange(o.CreatedAt, from, to) || o.Payment.Status != models.PaymentStatusCompleted {
			continue
		}
		day := o.CreatedAt.UTC().Format("2006-01-02")
		sales, ok := byDay[day]
		if !ok {
			sales = &models.DailySales{Date: day}
			byDay[day] = sales
		}
		sales.Revenue += o.Pricing.Total
		sales.Orders++
	}
	s.db.mu.RUnlock()

	out := make([]models.DailySales, 0, len(byDay))
	for _, sales := range byDay {
		out = append(out, *sales)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s reportStore) CategoryPerformance(_ context.Context, from, to time.Time) ([]models.CategoryPerformance, error) {
	s.db.mu.RLock()
	byCategory := map[primitive.ObjectID]*models.CategoryPerformance{}
	for _, o := range s.db.orders {
		if !inRange(o.CreatedAt, from, to) || o.Status == models.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			product, ok := s.db.products[item.ProductID]
			if !ok {
				continue
			}
			category, ok := s.db.categories[product.CategoryID]
			if !ok {
				continue
			}
			perf, ok := byCategory[category.ID]
			if !ok {
				perf = &models.CategoryPerformance{CategoryID: category.ID, Name: category.Name}
				byCategory[category.ID] = perf
			}
			perf.Quantity += int64(item.Quantity)
			perf.Revenue += item.Price * float64(item.Quantity)
		}
	}
	s.db.mu.RUnlock()

	out := make([]models.CategoryPerformance, 0, len(byCategory))
	for _, perf := range byCategory {
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out, nil
}
