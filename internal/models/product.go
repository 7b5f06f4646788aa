package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusDraft    = "draft"

	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"

	// LowStockLevel is the cut-off of the derived stockStatus field. The
	// notification threshold lives in Settings.
	LowStockLevel = 10
)

type Specification struct {
	Key   string `bson:"key" json:"key"`
	Value string `bson:"value" json:"value"`
}

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	CategoryID       primitive.ObjectID `bson:"category" json:"category"`
	Images           StringList         `bson:"images" json:"images"`
	Price            float64            `bson:"price" json:"price"`
	DiscountPrice    float64            `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`
	Stock            int                `bson:"stock" json:"stock"`
	MinOrderQuantity int                `bson:"minOrderQuantity" json:"minOrderQuantity"`
	Features         StringList         `bson:"features,omitempty" json:"features,omitempty"`
	Specifications   []Specification    `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Warranty         string             `bson:"warranty,omitempty" json:"warranty,omitempty"`
	Status           string             `bson:"status" json:"status"`
	Featured         bool               `bson:"featured" json:"featured"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`

	IsOnSale           bool    `bson:"-" json:"isOnSale"`
	DiscountPercentage int     `bson:"-" json:"discountPercentage"`
	FinalPrice         float64 `bson:"-" json:"finalPrice"`
	StockStatus        string  `bson:"-" json:"stockStatus"`
}

func (p Product) OnSale() bool {
	return p.DiscountPrice > 0 && p.DiscountPrice < p.Price
}

// EffectivePrice is the discount price when one is set, else the list price.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Decorate fills the derived fields that are never persisted.
func (p *Product) Decorate() {
	p.IsOnSale = p.OnSale()
	p.DiscountPercentage = 0
	if p.IsOnSale {
		p.DiscountPercentage = int(math.Round((p.Price - p.DiscountPrice) / p.Price * 100))
	}
	p.FinalPrice = p.EffectivePrice()
	p.StockStatus = StockStatusFor(p.Stock)
}

func StockStatusFor(stock int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock < LowStockLevel:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

func ValidProductStatus(status string) bool {
	switch status {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

// ProductSummary is the trimmed product shape joined into carts, orders and
// wishlists.
type ProductSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Images        []string           `json:"images"`
	Price         float64            `json:"price"`
	DiscountPrice float64            `json:"discountPrice,omitempty"`
	Stock         int                `json:"stock"`
	CategoryID    primitive.ObjectID `json:"category"`
}

func (p Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:            p.ID,
		Title:         p.Title,
		Images:        []string(p.Images),
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
	}
}
