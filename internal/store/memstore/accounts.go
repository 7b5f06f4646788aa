package memstore

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type userStore struct{ db *DB }

func (s userStore) Create(ctx context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	remember(ctx, s.db, "users", s.db.users, u.ID, cloneUser)
	s.db.users[u.ID] = cloneUser(*u)
	return nil
}

func (s userStore) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (s userStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s userStore) List(_ context.Context, f store.UserFilter) ([]models.User, int64, error) {
	s.db.mu.RLock()
	var matched []models.User
	for _, u := range s.db.users {
		if f.Matches(u) {
			matched = append(matched, cloneUser(u))
		}
	}
	s.db.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Page), int64(len(matched)), nil
}

func (s userStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch store.ProfilePatch) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	remember(ctx, s.db, "users", s.db.users, id, cloneUser)
	u = cloneUser(u)
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Company != nil {
		u.Company = *patch.Company
	}
	u.UpdatedAt = patch.UpdatedAt
	u.Version++
	s.db.users[id] = u
	out := cloneUser(u)
	return &out, nil
}

func (s userStore) SaveAddresses(ctx context.Context, id primitive.ObjectID, expectedVersion int64, addresses []models.Address) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	remember(ctx, s.db, "users", s.db.users, id, cloneUser)
	u.Addresses = append([]models.Address(nil), addresses...)
	u.Version++
	s.db.users[id] = u
	return nil
}

func (s userStore) UpdateAccount(ctx context.Context, id primitive.ObjectID, patch store.AccountPatch) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	remember(ctx, s.db, "users", s.db.users, id, cloneUser)
	u = cloneUser(u)
	patch.ApplyTo(&u)
	s.db.users[id] = u
	out := cloneUser(u)
	return &out, nil
}

func (s userStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return store.ErrNotFound
	}
	remember(ctx, s.db, "users", s.db.users, id, cloneUser)
	delete(s.db.users, id)
	return nil
}

func (s userStore) CountByRole(_ context.Context, role string) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, u := range s.db.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type cartStore struct{ db *DB }

func (s cartStore) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = cloneCart(c)
	return &c, nil
}

func (s cartStore) Save(ctx context.Context, c *models.Cart) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.carts[c.UserID]
	switch {
	case !ok && c.Version != 0:
		return store.ErrNotFound
	case ok && existing.Version != c.Version:
		return store.ErrVersionConflict
	}
	remember(ctx, s.db, "carts", s.db.carts, c.UserID, cloneCart)
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Version++
	s.db.carts[c.UserID] = cloneCart(*c)
	return nil
}

type wishlistStore struct{ db *DB }

func (s wishlistStore) Get(_ context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	w, ok := s.db.wishlists[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	w = cloneWishlist(w)
	return &w, nil
}

func (s wishlistStore) AddItem(ctx context.Context, userID primitive.ObjectID, item models.WishlistItem) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	remember(ctx, s.db, "wishlists", s.db.wishlists, userID, cloneWishlist)
	w, ok := s.db.wishlists[userID]
	if !ok {
		w = models.Wishlist{ID: primitive.NewObjectID(), UserID: userID, CreatedAt: item.AddedAt}
	}
	w = cloneWishlist(w)
	for _, existing := range w.Items {
		if existing.ProductID == item.ProductID {
			return nil
		}
	}
	item.Product = nil
	w.Items = append(w.Items, item)
	w.UpdatedAt = item.AddedAt
	s.db.wishlists[userID] = w
	return nil
}

func (s wishlistStore) RemoveItems(ctx context.Context, userID primitive.ObjectID, productIDs ...primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.wishlists[userID]
	if !ok {
		return nil
	}
	remember(ctx, s.db, "wishlists", s.db.wishlists, userID, cloneWishlist)
	drop := map[primitive.ObjectID]bool{}
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := make([]models.WishlistItem, 0, len(w.Items))
	for _, item := range w.Items {
		if !drop[item.ProductID] {
			kept = append(kept, item)
		}
	}
	w.Items = kept
	s.db.wishlists[userID] = w
	return nil
}
