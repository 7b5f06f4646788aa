package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{
			collection: "products",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("category_status")},
				{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}}, Options: options.Index().SetName("title_description_text")},
			},
		},
		{
			collection: "categories",
			models: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "name", Value: 1}},
					Options: options.Index().
						SetName("name_unique").
						SetUnique(true).
						SetCollation(&options.Collation{Locale: "en", Strength: 2}),
				},
			},
		},
		{
			collection: "users",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email_unique").SetUnique(true)},
				{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("role_createdAt")},
			},
		},
		{
			collection: "quotations",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("customer_createdAt")},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("status_createdAt")},
			},
		},
		{
			collection: "orders",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetName("orderNumber_unique").SetUnique(true)},
				{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("customer_createdAt")},
				{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status_index")},
			},
		},
		{
			collection: "carts",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("user_unique").SetUnique(true)},
			},
		},
		{
			collection: "wishlists",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("user_unique").SetUnique(true)},
			},
		},
		{
			collection: "notifications",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("isRead_createdAt")},
			},
		},
	}
}

// EnsureIndexes creates every index the stores rely on. A failing
// collection is logged and the rest still run; the first error is returned.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	var firstErr error
	for _, plan := range indexPlan() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		cancel()
		if err != nil {
			logger.Warn("index creation failed", zap.String("collection", plan.collection), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("indexes ensured", zap.String("collection", plan.collection), zap.Strings("indexes", names))
	}
	return firstErr
}
