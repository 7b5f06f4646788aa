// Package store declares the repositories the services depend on. The Mongo
// implementation lives in mongostore, the in-memory one in memstore.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicate         = errors.New("store: duplicate key")
	ErrVersionConflict   = errors.New("store: version conflict")
	ErrInsufficientStock = errors.New("store: insufficient stock")
)

// TxRunner runs fn atomically. Repository calls made with the ctx passed to
// fn take part in the transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*models.Product, error)
	SetStatus(ctx context.Context, ids []primitive.ObjectID, status string) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdjustStock adds delta to the stock counter and returns the new level.
	// A negative delta only applies while stock stays non-negative, otherwise
	// ErrInsufficientStock.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context, f CategoryFilter) ([]models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	// ApplyUpdate writes u only while the stored version equals
	// expectedVersion, otherwise ErrVersionConflict.
	ApplyUpdate(ctx context.Context, id primitive.ObjectID, expectedVersion int64, u models.OrderUpdate) (*models.Order, error)
	CustomerStats(ctx context.Context, customerID primitive.ObjectID) (models.OrderStats, error)
}

type CartStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// Save inserts a new cart (zero version) or replaces a stored one whose
	// version still matches. On success c.Version is advanced.
	Save(ctx context.Context, c *models.Cart) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch ProfilePatch) (*models.User, error)
	// SaveAddresses replaces the address book only while the stored version
	// equals expectedVersion, otherwise ErrVersionConflict.
	SaveAddresses(ctx context.Context, id primitive.ObjectID, expectedVersion int64, addresses []models.Address) error
	UpdateAccount(ctx context.Context, id primitive.ObjectID, patch AccountPatch) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByRole(ctx context.Context, role string) (int64, error)
}

type QuotationStore interface {
	Create(ctx context.Context, q *models.Quotation) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error)
	List(ctx context.Context, f QuotationFilter) ([]models.Quotation, int64, error)
	// Respond writes r only while the stored version equals
	// expectedVersion, otherwise ErrVersionConflict.
	Respond(ctx context.Context, id primitive.ObjectID, expectedVersion int64, r models.QuotationResponse) (*models.Quotation, error)
}

type WishlistStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	// AddItem is a no-op when the product is already listed.
	AddItem(ctx context.Context, userID primitive.ObjectID, item models.WishlistItem) error
	RemoveItems(ctx context.Context, userID primitive.ObjectID, productIDs ...primitive.ObjectID) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, f NotificationFilter) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, by primitive.ObjectID, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, by primitive.ObjectID, at time.Time) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (models.NotificationStats, error)
}

type CounterStore interface {
	// Next atomically increments the named counter and returns the new value.
	Next(ctx context.Context, key string) (int64, error)
}

type SettingsStore interface {
	Load(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, s *models.Settings) error
}

// ReportStore runs the read-only rollups over orders. Time ranges are
// half-open: from <= createdAt < to.
type ReportStore interface {
	PeriodTotals(ctx context.Context, from, to time.Time) (models.PeriodTotals, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.ProductPerformance, error)
	DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error)
	CategoryPerformance(ctx context.Context, from, to time.Time) ([]models.CategoryPerformance, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles every repository of one backend.
type Store struct {
	Tx            TxRunner
	Products      ProductStore
	Categories    CategoryStore
	Orders        OrderStore
	Carts         CartStore
	Users         UserStore
	Quotations    QuotationStore
	Wishlists     WishlistStore
	Notifications NotificationStore
	Counters      CounterStore
	Settings      SettingsStore
	Reports       ReportStore
	Health        Pinger
}
