package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type notificationStore struct{ coll *mongo.Collection }

func (s notificationStore) Insert(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, n)
	return err
}

func (s notificationStore) List(ctx context.Context, f store.NotificationFilter) ([]models.Notification, int64, error) {
	query := bson.M{}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.IsRead != nil {
		query["isRead"] = *f.IsRead
	}
	if f.Priority != "" {
		query["priority"] = f.Priority
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
	items, err := findAll[models.Notification](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s notificationStore) MarkRead(ctx context.Context, id, by primitive.ObjectID, at time.Time) (*models.Notification, error) {
	var n models.Notification
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": at, "readBy": by}}
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&n); err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (s notificationStore) MarkAllRead(ctx context.Context, by primitive.ObjectID, at time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": at, "readBy": by}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s notificationStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s notificationStore) Stats(ctx context.Context) (models.NotificationStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"total":    bson.M{"$sum": 1},
			"unread":   bson.M{"$sum": bson.M{"$cond": bson.A{"$isRead", 0, 1}}},
			"high":     bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$priority", models.PriorityHigh}}, 1, 0}}},
			"critical": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$priority", models.PriorityCritical}}, 1, 0}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.NotificationStats{}, err
	}
	rows, err := findAll[struct {
		Total    int64 `bson:"total"`
		Unread   int64 `bson:"unread"`
		High     int64 `bson:"high"`
		Critical int64 `bson:"critical"`
	}](ctx, cursor)
	if err != nil || len(rows) == 0 {
		return models.NotificationStats{}, err
	}
	return models.NotificationStats{
		Total:    rows[0].Total,
		Unread:   rows[0].Unread,
		High:     rows[0].High,
		Critical: rows[0].Critical,
	}, nil
}

type settingsStore struct{ coll *mongo.Collection }

func (s settingsStore) Load(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := s.coll.FindOne(ctx, bson.M{"_id": models.SettingsKey}).Decode(&settings); err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (s settingsStore) Save(ctx context.Context, settings *models.Settings) error {
	settings.ID = models.SettingsKey
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": models.SettingsKey},
		settings,
		options.Replace().SetUpsert(true),
	)
	return err
}
