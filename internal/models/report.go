package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Period totals over orders with a completed payment.
type PeriodTotals struct {
	Revenue float64 `bson:"revenue" json:"revenue"`
	Orders  int64   `bson:"orders" json:"orders"`
}

type ProductPerformance struct {
	ProductID primitive.ObjectID `bson:"_id" json:"productId"`
	Title     string             `bson:"title" json:"title"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	Revenue   float64            `bson:"revenue" json:"revenue"`
	Orders    int64              `bson:"orders" json:"orders"`
}

type DailySales struct {
	Date    string  `bson:"_id" json:"date"`
	Revenue float64 `bson:"revenue" json:"revenue"`
	Orders  int64   `bson:"orders" json:"orders"`
}

type CategoryPerformance struct {
	CategoryID primitive.ObjectID `bson:"_id" json:"categoryId"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int64              `bson:"quantity" json:"quantity"`
	Revenue    float64            `bson:"revenue" json:"revenue"`
}
