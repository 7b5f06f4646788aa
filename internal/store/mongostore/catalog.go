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

type productStore struct{ coll *mongo.Collection }

func (s productStore) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err)
}

func (s productStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s productStore) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	products, err := findAll[models.Product](ctx, cursor)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func productQuery(f store.ProductFilter) bson.M {
	query := bson.M{}
	if f.CategoryID != nil {
		query["category"] = *f.CategoryID
	}
	if len(f.Statuses) > 0 {
		query["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.Featured != nil {
		query["featured"] = *f.Featured
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	switch f.StockStatus {
	case models.StockStatusOut:
		query["stock"] = bson.M{"$lte": 0}
	case models.StockStatusLow:
		query["stock"] = bson.M{"$gt": 0, "$lt": models.LowStockLevel}
	case models.StockStatusIn:
		query["stock"] = bson.M{"$gte": models.LowStockLevel}
	}
	return query
}

func productSort(sort string) bson.D {
	switch sort {
	case store.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case store.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case store.SortTitle:
		return bson.D{{Key: "title", Value: 1}}
	case store.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (s productStore) List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	query := productQuery(f)
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	page := f.Page.Normalize()
	opts := options.Find().
		SetSort(productSort(f.Sort)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	products, err := findAll[models.Product](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productSet(patch store.ProductPatch) bson.M {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.CategoryID != nil {
		set["category"] = *patch.CategoryID
	}
	if patch.Images != nil {
		set["images"] = *patch.Images
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.DiscountPrice != nil {
		set["discountPrice"] = *patch.DiscountPrice
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.MinOrderQuantity != nil {
		set["minOrderQuantity"] = *patch.MinOrderQuantity
	}
	if patch.Features != nil {
		set["features"] = *patch.Features
	}
	if patch.Specifications != nil {
		set["specifications"] = *patch.Specifications
	}
	if patch.Warranty != nil {
		set["warranty"] = *patch.Warranty
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Featured != nil {
		set["featured"] = *patch.Featured
	}
	return set
}

func (s productStore) Update(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error) {
	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": productSet(patch)}, opts).Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s productStore) SetStatus(ctx context.Context, ids []primitive.ObjectID, status string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s productStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s productStore) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) (int, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	var p models.Product
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"stock": 1})
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}}, opts).Decode(&p)
	if err == nil {
		return p.Stock, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	found, err := exists(ctx, s.coll, id)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, store.ErrNotFound
	}
	return 0, store.ErrInsufficientStock
}

func (s productStore) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"category": categoryID})
}

func (s productStore) CountActive(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"status": models.ProductStatusActive})
}

type categoryStore struct{ coll *mongo.Collection }

func (s categoryStore) Create(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, c)
	return translate(err)
}

func (s categoryStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s categoryStore) List(ctx context.Context, f store.CategoryFilter) ([]models.Category, error) {
	query := bson.M{}
	if f.ActiveOnly {
		query["isActive"] = true
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	cursor, err := s.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return findAll[models.Category](ctx, cursor)
}

func (s categoryStore) Update(ctx context.Context, c *models.Category) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s categoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
