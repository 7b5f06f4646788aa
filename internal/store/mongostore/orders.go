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

type orderStore struct{ coll *mongo.Collection }

func (s orderStore) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, o)
	return translate(err)
}

func (s orderStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s orderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, bson.M{"orderNumber": number}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func orderQuery(f store.OrderFilter) bson.M {
	query := bson.M{}
	if f.CustomerID != nil {
		query["customer"] = *f.CustomerID
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		query["payment.status"] = f.PaymentStatus
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		query["$or"] = bson.A{
			bson.M{"orderNumber": pattern},
			bson.M{"customerInfo.name": pattern},
			bson.M{"customerInfo.email": pattern},
		}
	}
	created := bson.M{}
	if f.From != nil {
		created["$gte"] = *f.From
	}
	if f.To != nil {
		created["$lt"] = *f.To
	}
	if len(created) > 0 {
		query["createdAt"] = created
	}
	return query
}

func orderSort(sort string) bson.D {
	switch sort {
	case store.SortOldest:
		return bson.D{{Key: "createdAt", Value: 1}}
	case store.SortTotalAsc:
		return bson.D{{Key: "pricing.total", Value: 1}}
	case store.SortTotalDesc:
		return bson.D{{Key: "pricing.total", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (s orderStore) List(ctx context.Context, f store.OrderFilter) ([]models.Order, int64, error) {
	query := orderQuery(f)
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	page := f.Page.Normalize()
	opts := options.Find().
		SetSort(orderSort(f.Sort)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	orders, err := findAll[models.Order](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func orderUpdateDoc(u models.OrderUpdate) bson.M {
	set := bson.M{"updatedAt": u.UpdatedAt}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Payment != nil {
		set["payment"] = *u.Payment
	}
	if u.PaymentStatus != nil {
		set["payment.status"] = *u.PaymentStatus
	}
	if u.PaidAt != nil {
		set["payment.paidAt"] = *u.PaidAt
	}
	if u.StockReserved != nil {
		set["stockReserved"] = *u.StockReserved
	}
	if u.ShippedAt != nil {
		set["shipping.shippedAt"] = *u.ShippedAt
	}
	if u.DeliveredAt != nil {
		set["shipping.deliveredAt"] = *u.DeliveredAt
	}
	if u.TrackingNumber != nil {
		set["shipping.trackingNumber"] = *u.TrackingNumber
	}
	if u.AdminNotes != nil {
		set["adminNotes"] = *u.AdminNotes
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if u.History != nil {
		update["$push"] = bson.M{"statusHistory": *u.History}
	}
	return update
}

func (s orderStore) ApplyUpdate(ctx context.Context, id primitive.ObjectID, expectedVersion int64, u models.OrderUpdate) (*models.Order, error) {
	if u.Payment != nil && (u.PaymentStatus != nil || u.PaidAt != nil) {
		// A whole payment document and a field of it cannot be set together.
		payment := *u.Payment
		if u.PaymentStatus != nil {
			payment.Status = *u.PaymentStatus
		}
		if u.PaidAt != nil {
			paidAt := *u.PaidAt
			payment.PaidAt = &paidAt
		}
		u.Payment, u.PaymentStatus, u.PaidAt = &payment, nil, nil
	}

	var o models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "version": expectedVersion}
	err := s.coll.FindOneAndUpdate(ctx, filter, orderUpdateDoc(u), opts).Decode(&o)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	found, err := exists(ctx, s.coll, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return nil, store.ErrVersionConflict
}

func (s orderStore) CustomerStats(ctx context.Context, customerID primitive.ObjectID) (models.OrderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"customer": customerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"totalOrders": bson.M{"$sum": 1},
			"totalSpent":  bson.M{"$sum": "$pricing.total"},
			"pendingOrders": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.OrderStatusPending}}, 1, 0},
			}},
			"deliveredOrders": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.OrderStatusDelivered}}, 1, 0},
			}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.OrderStats{}, err
	}
	rows, err := findAll[struct {
		TotalOrders     int64   `bson:"totalOrders"`
		TotalSpent      float64 `bson:"totalSpent"`
		PendingOrders   int64   `bson:"pendingOrders"`
		DeliveredOrders int64   `bson:"deliveredOrders"`
	}](ctx, cursor)
	if err != nil || len(rows) == 0 {
		return models.OrderStats{}, err
	}
	row := rows[0]
	return models.OrderStats{
		TotalOrders:     row.TotalOrders,
		TotalSpent:      row.TotalSpent,
		PendingOrders:   row.PendingOrders,
		DeliveredOrders: row.DeliveredOrders,
	}, nil
}

type counterStore struct{ coll *mongo.Collection }

func (s counterStore) Next(ctx context.Context, key string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
