package mongostore

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type userStore struct{ coll *mongo.Collection }

func (s userStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	if u.Addresses == nil {
		u.Addresses = []models.Address{}
	}
	_, err := s.coll.InsertOne(ctx, u)
	return translate(err)
}

func (s userStore) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s userStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch store.ProfilePatch) (*models.User, error) {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Company != nil {
		set["company"] = *patch.Company
	}
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s userStore) SaveAddresses(ctx context.Context, id primitive.ObjectID, expectedVersion int64, addresses []models.Address) error {
	if addresses == nil {
		addresses = []models.Address{}
	}
	res, err := s.coll.UpdateOne(ctx,
		versionFilter(id, expectedVersion),
		bson.M{"$set": bson.M{"addresses": addresses}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, s.coll, id)
	}
	return nil
}

// versionFilter matches id at expectedVersion. Documents written before the
// version field existed count as version zero.
func versionFilter(id primitive.ObjectID, expectedVersion int64) bson.M {
	if expectedVersion == 0 {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "version": expectedVersion}
}

func missingOrConflict(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	found, err := exists(ctx, coll, id)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	return store.ErrVersionConflict
}

func userQuery(f store.UserFilter) bson.M {
	query := bson.M{}
	if f.Role != "" {
		query["role"] = f.Role
	}
	switch f.CustomerType {
	case models.CustomerB2B:
		query["customerType"] = models.CustomerB2B
	case models.CustomerB2C:
		query["customerType"] = bson.M{"$ne": models.CustomerB2B}
	}
	if f.ApprovalStatus != "" {
		query["approvalStatus"] = f.ApprovalStatus
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"company": pattern},
		}
	}
	return query
}

func (s userStore) List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	query := userQuery(f)
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	page := f.Page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit)).
		SetProjection(bson.M{"passwordHash": 0})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	users, err := findAll[models.User](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s userStore) UpdateAccount(ctx context.Context, id primitive.ObjectID, patch store.AccountPatch) (*models.User, error) {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.ApprovalStatus != nil {
		set["approvalStatus"] = *patch.ApprovalStatus
	}
	if patch.ApprovedBy != nil {
		set["approvedBy"] = *patch.ApprovedBy
	}
	if patch.ApprovedAt != nil {
		set["approvedAt"] = *patch.ApprovedAt
	}
	if patch.RejectedBy != nil {
		set["rejectedBy"] = *patch.RejectedBy
	}
	if patch.RejectedAt != nil {
		set["rejectedAt"] = *patch.RejectedAt
	}
	if patch.RejectionReason != nil {
		set["rejectionReason"] = *patch.RejectionReason
	}
	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s userStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s userStore) CountByRole(ctx context.Context, role string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"role": role})
}

type cartStore struct{ coll *mongo.Collection }

func (s cartStore) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s cartStore) Save(ctx context.Context, c *models.Cart) error {
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	expected := c.Version
	next := *c
	next.Version = expected + 1

	if expected == 0 {
		if next.ID.IsZero() {
			next.ID = primitive.NewObjectID()
		}
		if _, err := s.coll.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return store.ErrVersionConflict
			}
			return err
		}
		*c = next
		return nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"user": c.UserID, "version": expected}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrVersionConflict
	}
	*c = next
	return nil
}

type wishlistStore struct{ coll *mongo.Collection }

func (s wishlistStore) Get(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := s.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&w); err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s wishlistStore) AddItem(ctx context.Context, userID primitive.ObjectID, item models.WishlistItem) error {
	filter := bson.M{"user": userID, "items.product": bson.M{"$ne": item.ProductID}}
	update := bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updatedAt": item.AddedAt},
		"$setOnInsert": bson.M{"createdAt": item.AddedAt},
	}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// The wishlist exists and already holds the product.
		return nil
	}
	return err
}

func (s wishlistStore) RemoveItems(ctx context.Context, userID primitive.ObjectID, productIDs ...primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user": userID},
		bson.M{"$pull": bson.M{"items": bson.M{"product": bson.M{"$in": productIDs}}}},
	)
	return err
}
