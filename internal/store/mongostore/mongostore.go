// Package mongostore implements the repositories on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/database"
	"storefront/internal/store"
)

const (
	productsCollection      = "products"
	categoriesCollection    = "categories"
	ordersCollection        = "orders"
	cartsCollection         = "carts"
	usersCollection         = "users"
	quotationsCollection    = "quotations"
	wishlistsCollection     = "wishlists"
	notificationsCollection = "notifications"
	countersCollection      = "counters"
	settingsCollection      = "settings"
)

// New wires every repository to db. Transactions run on client sessions.
func New(client *mongo.Client, db *mongo.Database) *store.Store {
	return &store.Store{
		Tx:            database.NewTxRunner(client),
		Products:      productStore{db.Collection(productsCollection)},
		Categories:    categoryStore{db.Collection(categoriesCollection)},
		Orders:        orderStore{db.Collection(ordersCollection)},
		Carts:         cartStore{db.Collection(cartsCollection)},
		Users:         userStore{db.Collection(usersCollection)},
		Quotations:    quotationStore{db.Collection(quotationsCollection)},
		Wishlists:     wishlistStore{db.Collection(wishlistsCollection)},
		Notifications: notificationStore{db.Collection(notificationsCollection)},
		Counters:      counterStore{db.Collection(countersCollection)},
		Settings:      settingsStore{db.Collection(settingsCollection)},
		Reports:       reportStore{orders: db.Collection(ordersCollection)},
		Health:        pinger{client},
	}
}

type pinger struct{ client *mongo.Client }

func (p pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

func exists(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func findAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
