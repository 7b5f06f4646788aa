// Package memstore keeps every collection in process memory. It backs the
// development mode (STORE_DRIVER=memory) and the service tests.
package memstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products      map[primitive.ObjectID]models.Product
	categories    map[primitive.ObjectID]models.Category
	orders        map[primitive.ObjectID]models.Order
	carts         map[primitive.ObjectID]models.Cart
	users         map[primitive.ObjectID]models.User
	quotations    map[primitive.ObjectID]models.Quotation
	wishlists     map[primitive.ObjectID]models.Wishlist
	notifications map[primitive.ObjectID]models.Notification
	counters      map[string]int64
	settings      *models.Settings
}

func New() *DB {
	return &DB{
		products:      map[primitive.ObjectID]models.Product{},
		categories:    map[primitive.ObjectID]models.Category{},
		orders:        map[primitive.ObjectID]models.Order{},
		carts:         map[primitive.ObjectID]models.Cart{},
		users:         map[primitive.ObjectID]models.User{},
		quotations:    map[primitive.ObjectID]models.Quotation{},
		wishlists:     map[primitive.ObjectID]models.Wishlist{},
		notifications: map[primitive.ObjectID]models.Notification{},
		counters:      map[string]int64{},
	}
}

// Store exposes the repositories over this DB.
func (db *DB) Store() *store.Store {
	return &store.Store{
		Tx:            db,
		Products:      productStore{db},
		Categories:    categoryStore{db},
		Orders:        orderStore{db},
		Carts:         cartStore{db},
		Users:         userStore{db},
		Quotations:    quotationStore{db},
		Wishlists:     wishlistStore{db},
		Notifications: notificationStore{db},
		Counters:      counterStore{db},
		Settings:      settingsStore{db},
		Reports:       reportStore{db},
		Health:        db,
	}
}

func (db *DB) Ping(context.Context) error { return nil }

// WithTx serialises transactions. Each write made with the transaction ctx
// first records how to undo itself; when fn fails the recorded keys are put
// back in reverse order, leaving writes made outside the transaction intact.
// A nested call joins the running transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.txLog(ctx) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	log := &undoLog{db: db, seen: map[undoKey]struct{}{}}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		db.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		db.mu.Unlock()
		return err
	}
	return nil
}

type txKey struct{}

type undoKey struct {
	collection string
	key        any
}

type undoLog struct {
	db   *DB
	seen map[undoKey]struct{}
	undo []func()
}

func (db *DB) txLog(ctx context.Context) *undoLog {
	log, _ := ctx.Value(txKey{}).(*undoLog)
	if log == nil || log.db != db {
		return nil
	}
	return log
}

// track records the first write to one key of a transaction. Callers hold
// db.mu and call it before writing.
func (l *undoLog) track(collection string, key any, undo func()) {
	id := undoKey{collection: collection, key: key}
	if _, ok := l.seen[id]; ok {
		return
	}
	l.seen[id] = struct{}{}
	l.undo = append(l.undo, undo)
}

// remember captures m[key] so a failed transaction can restore it, or remove
// the key when it did not exist.
func remember[K comparable, V any](ctx context.Context, db *DB, collection string, m map[K]V, key K, clone func(V) V) {
	log := db.txLog(ctx)
	if log == nil {
		return
	}
	prev, existed := m[key]
	if existed {
		prev = clone(prev)
	}
	log.track(collection, key, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func same[V any](v V) V { return v }

func cloneProduct(p models.Product) models.Product {
	p.Images = append(models.StringList(nil), p.Images...)
	p.Features = append(models.StringList(nil), p.Features...)
	p.Specifications = append([]models.Specification(nil), p.Specifications...)
	return p
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Variants = append([]models.Variant(nil), item.Variants...)
		item.Product = nil
		items[i] = item
	}
	o.Items = items
	o.StatusHistory = append([]models.StatusEntry(nil), o.StatusHistory...)
	o.Customer = nil
	return o
}

func cloneCart(c models.Cart) models.Cart {
	items := make([]models.CartItem, len(c.Items))
	for i, item := range c.Items {
		item.Product = nil
		items[i] = item
	}
	c.Items = items
	return c
}

func cloneUser(u models.User) models.User {
	u.Addresses = append([]models.Address(nil), u.Addresses...)
	if u.Business != nil {
		business := *u.Business
		u.Business = &business
	}
	return u
}

func cloneQuotation(q models.Quotation) models.Quotation {
	if q.QuotedPrice != nil {
		price := *q.QuotedPrice
		q.QuotedPrice = &price
	}
	q.Product = nil
	q.Customer = nil
	return q
}

func cloneWishlist(w models.Wishlist) models.Wishlist {
	items := make([]models.WishlistItem, len(w.Items))
	for i, item := range w.Items {
		item.Product = nil
		items[i] = item
	}
	w.Items = items
	return w
}

func cloneNotification(n models.Notification) models.Notification {
	if n.Data != nil {
		data := make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	return n
}

func page[T any](items []T, p store.Page) []T {
	start, end := p.Window(len(items))
	if start == end {
		return []T{}
	}
	return items[start:end]
}
