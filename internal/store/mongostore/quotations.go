package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type quotationStore struct{ coll *mongo.Collection }

func (s quotationStore) Create(ctx context.Context, q *models.Quotation) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, q)
	return translate(err)
}

func (s quotationStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error) {
	var q models.Quotation
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (s quotationStore) List(ctx context.Context, f store.QuotationFilter) ([]models.Quotation, int64, error) {
	query := bson.M{}
	if f.CustomerID != nil {
		query["customer"] = *f.CustomerID
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	page := f.Page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	quotes, err := findAll[models.Quotation](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (s quotationStore) Respond(ctx context.Context, id primitive.ObjectID, expectedVersion int64, r models.QuotationResponse) (*models.Quotation, error) {
	set := bson.M{
		"status":      r.Status,
		"adminNotes":  r.AdminNotes,
		"respondedBy": r.RespondedBy,
		"respondedAt": r.RespondedAt,
		"updatedAt":   r.RespondedAt,
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if r.QuotedPrice != nil {
		set["quotedPrice"] = *r.QuotedPrice
	} else {
		update["$unset"] = bson.M{"quotedPrice": ""}
	}

	var q models.Quotation
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": expectedVersion}, update, opts).Decode(&q)
	if err == nil {
		return &q, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	return nil, missingOrConflict(ctx, s.coll, id)
}
