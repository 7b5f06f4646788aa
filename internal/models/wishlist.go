package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`

	Product *ProductSummary `bson:"-" json:"productDetails,omitempty"`
}

type Wishlist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Items     []WishlistItem     `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
