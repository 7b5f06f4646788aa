package memstore

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type quotationStore struct{ db *DB }

func (s quotationStore) Create(ctx context.Context, q *models.Quotation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	if _, ok := s.db.quotations[q.ID]; ok {
		return store.ErrDuplicate
	}
	remember(ctx, s.db, "quotations", s.db.quotations, q.ID, cloneQuotation)
	s.db.quotations[q.ID] = cloneQuotation(*q)
	return nil
}

func (s quotationStore) Get(_ context.Context, id primitive.ObjectID) (*models.Quotation, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	q, ok := s.db.quotations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	q = cloneQuotation(q)
	return &q, nil
}

func (s quotationStore) List(_ context.Context, f store.QuotationFilter) ([]models.Quotation, int64, error) {
	s.db.mu.RLock()
	var matched []models.Quotation
	for _, q := range s.db.quotations {
		if f.Matches(q) {
			matched = append(matched, cloneQuotation(q))
		}
	}
	s.db.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Page), int64(len(matched)), nil
}

func (s quotationStore) Respond(ctx context.Context, id primitive.ObjectID, expectedVersion int64, r models.QuotationResponse) (*models.Quotation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quotations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if q.Version != expectedVersion {
		return nil, store.ErrVersionConflict
	}
	remember(ctx, s.db, "quotations", s.db.quotations, id, cloneQuotation)
	q = cloneQuotation(q)
	r.Apply(&q)
	s.db.quotations[id] = q
	out := cloneQuotation(q)
	return &out, nil
}
