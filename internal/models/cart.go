package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`

	Product *ProductSummary `bson:"-" json:"productDetails,omitempty"`
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	Version   int64              `bson:"version" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Total     float64 `bson:"-" json:"total"`
	ItemCount int     `bson:"-" json:"itemCount"`
}

// Summarize fills the derived totals from the current lines.
func (c *Cart) Summarize() {
	c.Total, c.ItemCount = 0, 0
	for _, item := range c.Items {
		c.Total += item.Price * float64(item.Quantity)
		c.ItemCount += item.Quantity
	}
}

func (c Cart) ItemIndex(itemID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c Cart) ProductIndex(productID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
