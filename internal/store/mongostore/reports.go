package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type reportStore struct{ orders *mongo.Collection }

func createdBetween(from, to time.Time) bson.M {
	return bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}}
}

func notCancelledBetween(from, to time.Time) bson.M {
	match := createdBetween(from, to)
	match["status"] = bson.M{"$ne": models.OrderStatusCancelled}
	return match
}

func (s reportStore) PeriodTotals(ctx context.Context, from, to time.Time) (models.PeriodTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: createdBetween(from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"orders": bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": bson.M{
				"$cond": bson.A{
					bson.M{"$eq": bson.A{"$payment.status", models.PaymentStatusCompleted}},
					"$pricing.total",
					0,
				},
			}},
		}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return models.PeriodTotals{}, err
	}
	rows, err := findAll[models.PeriodTotals](ctx, cursor)
	if err != nil || len(rows) == 0 {
		return models.PeriodTotals{}, err
	}
	return rows[0], nil
}

func (s reportStore) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.ProductPerformance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notCancelledBetween(from, to)}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$items.product",
			"title":    bson.M{"$last": "$items.productInfo.title"},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.quantity", "$items.price"}}},
			"orders":   bson.M{"$addToSet": "$_id"},
		}}},
		{{Key: "$set", Value: bson.M{"orders": bson.M{"$size": "$orders"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "revenue", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return findAll[models.ProductPerformance](ctx, cursor)
}

func (s reportStore) DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error) {
	match := createdBetween(from, to)
	match["payment.status"] = models.PaymentStatusCompleted
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"revenue": bson.M{"$sum": "$pricing.total"},
			"orders":  bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return findAll[models.DailySales](ctx, cursor)
}

func (s reportStore) CategoryPerformance(ctx context.Context, from, to time.Time) ([]models.CategoryPerformance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notCancelledBetween(from, to)}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         productsCollection,
			"localField":   "items.product",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         categoriesCollection,
			"localField":   "product.category",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$unwind", Value: "$category"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$category._id",
			"name":     bson.M{"$first": "$category.name"},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.quantity", "$items.price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return findAll[models.CategoryPerformance](ctx, cursor)
}
