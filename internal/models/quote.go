package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	QuoteStatusPending  = "pending"
	QuoteStatusApproved = "approved"
	QuoteStatusQuoted   = "quoted"
	QuoteStatusRejected = "rejected"
	QuoteStatusExpired  = "expired"
)

func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusPending, QuoteStatusApproved, QuoteStatusQuoted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// QuotedPrice is the admin's offer on a quotation request.
type QuotedPrice struct {
	UnitPrice  float64   `bson:"unitPrice" json:"unitPrice"`
	TotalPrice float64   `bson:"totalPrice" json:"totalPrice"`
	ValidUntil time.Time `bson:"validUntil" json:"validUntil"`
}

// Quotation is a B2B customer's request for a bulk price on one product.
type Quotation struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CustomerID     primitive.ObjectID  `bson:"customer" json:"customerId"`
	ProductID      primitive.ObjectID  `bson:"product" json:"productId"`
	Quantity       int                 `bson:"quantity" json:"quantity"`
	Specifications string              `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Status         string              `bson:"status" json:"status"`
	AdminNotes     string              `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	QuotedPrice    *QuotedPrice        `bson:"quotedPrice,omitempty" json:"quotedPrice,omitempty"`
	RespondedBy    *primitive.ObjectID `bson:"respondedBy,omitempty" json:"respondedBy,omitempty"`
	RespondedAt    *time.Time          `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	Version        int64               `bson:"version" json:"-"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`

	Product  *ProductSummary `bson:"-" json:"product,omitempty"`
	Customer *UserSummary    `bson:"-" json:"customer,omitempty"`
}

// EffectiveStatus reports an offer past its validity as expired. The stored
// status is left alone.
func (q Quotation) EffectiveStatus(now time.Time) string {
	if q.QuotedPrice != nil && now.After(q.QuotedPrice.ValidUntil) &&
		(q.Status == QuoteStatusQuoted || q.Status == QuoteStatusApproved) {
		return QuoteStatusExpired
	}
	return q.Status
}

// QuotationResponse is the admin's answer written in one versioned update.
type QuotationResponse struct {
	Status      string
	AdminNotes  string
	QuotedPrice *QuotedPrice
	RespondedBy primitive.ObjectID
	RespondedAt time.Time
}

func (r QuotationResponse) Apply(q *Quotation) {
	q.Status = r.Status
	q.AdminNotes = r.AdminNotes
	q.QuotedPrice = r.QuotedPrice
	by, at := r.RespondedBy, r.RespondedAt
	q.RespondedBy = &by
	q.RespondedAt = &at
	q.UpdatedAt = r.RespondedAt
	q.Version++
}
