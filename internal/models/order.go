package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"

	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodUPI          = "upi"

	ShippingStandard = "standard"
	ShippingExpress  = "express"
	ShippingPriority = "priority"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

func ValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodUPI:
		return true
	}
	return false
}

// ReservesAtCreation reports whether stock is taken when the order is placed.
// Online methods take it when the payment completes.
func ReservesAtCreation(method string) bool {
	return method == PaymentMethodCOD || method == PaymentMethodBankTransfer
}

// CustomerInfo is the contact snapshot taken when the order is placed.
type CustomerInfo struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Company string `bson:"company,omitempty" json:"company,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

type ProductSnapshot struct {
	Title string  `bson:"title" json:"title"`
	Price float64 `bson:"price" json:"price"`
	Image string  `bson:"image" json:"image"`
}

type Variant struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"product" json:"product"`
	ProductInfo ProductSnapshot    `bson:"productInfo" json:"productInfo"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
	Size        string             `bson:"size,omitempty" json:"size,omitempty"`
	Variants    []Variant          `bson:"variants,omitempty" json:"variants,omitempty"`

	Product *ProductSummary `bson:"-" json:"productDetails,omitempty"`
}

// Pricing is computed once at creation and never recomputed.
type Pricing struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Tax      float64 `bson:"tax" json:"tax"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Discount float64 `bson:"discount" json:"discount"`
	Total    float64 `bson:"total" json:"total"`
}

type Payment struct {
	Method           string     `bson:"method" json:"method"`
	Status           string     `bson:"status" json:"status"`
	TransactionID    string     `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	UPITransactionID string     `bson:"upiTransactionId,omitempty" json:"upiTransactionId,omitempty"`
	UPIID            string     `bson:"upiId,omitempty" json:"upiId,omitempty"`
	UPIProvider      string     `bson:"upiProvider,omitempty" json:"upiProvider,omitempty"`
	PaidAt           *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

type Shipping struct {
	Method            string     `bson:"method" json:"method"`
	Address           string     `bson:"address,omitempty" json:"address,omitempty"`
	TrackingNumber    string     `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
}

type StatusEntry struct {
	Status    string              `bson:"status" json:"status"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber   string             `bson:"orderNumber" json:"orderNumber"`
	CustomerID    primitive.ObjectID `bson:"customer" json:"customer"`
	CustomerInfo  CustomerInfo       `bson:"customerInfo" json:"customerInfo"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Pricing       Pricing            `bson:"pricing" json:"pricing"`
	Payment       Payment            `bson:"payment" json:"payment"`
	Status        string             `bson:"status" json:"status"`
	Shipping      Shipping           `bson:"shipping" json:"shipping"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AdminNotes    string             `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	StatusHistory []StatusEntry      `bson:"statusHistory" json:"statusHistory"`
	StockReserved bool               `bson:"stockReserved" json:"stockReserved"`
	Version       int64              `bson:"version" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	Customer *UserSummary `bson:"-" json:"customerDetails,omitempty"`
}

// ItemCount is the number of units across all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// OrderUpdate describes one post-creation write. Every update bumps the
// version and may append a single history entry.
type OrderUpdate struct {
	Status         *string
	Payment        *Payment
	PaymentStatus  *string
	PaidAt         *time.Time
	StockReserved  *bool
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	TrackingNumber *string
	AdminNotes     *string
	History        *StatusEntry
	UpdatedAt      time.Time
}

// Apply mutates o in memory the same way the store applies the update.
func (u OrderUpdate) Apply(o *Order) {
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.Payment != nil {
		o.Payment = *u.Payment
	}
	if u.PaymentStatus != nil {
		o.Payment.Status = *u.PaymentStatus
	}
	if u.PaidAt != nil {
		paidAt := *u.PaidAt
		o.Payment.PaidAt = &paidAt
	}
	if u.StockReserved != nil {
		o.StockReserved = *u.StockReserved
	}
	if u.ShippedAt != nil {
		shippedAt := *u.ShippedAt
		o.Shipping.ShippedAt = &shippedAt
	}
	if u.DeliveredAt != nil {
		deliveredAt := *u.DeliveredAt
		o.Shipping.DeliveredAt = &deliveredAt
	}
	if u.TrackingNumber != nil {
		o.Shipping.TrackingNumber = *u.TrackingNumber
	}
	if u.AdminNotes != nil {
		o.AdminNotes = *u.AdminNotes
	}
	if u.History != nil {
		o.StatusHistory = append(o.StatusHistory, *u.History)
	}
	o.UpdatedAt = u.UpdatedAt
	o.Version++
}

// OrderTracking is the public projection served without authentication. It
// never carries the delivery address or who changed the status.
type OrderTracking struct {
	OrderNumber   string           `json:"orderNumber"`
	Status        string           `json:"status"`
	Shipping      TrackingShipping `json:"shipping"`
	StatusHistory []TrackingEntry  `json:"statusHistory"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type TrackingShipping struct {
	Method            string     `json:"method"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	ShippedAt         *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

type TrackingEntry struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracking projects o for the public tracking lookup.
func (o Order) Tracking() OrderTracking {
	history := make([]TrackingEntry, 0, len(o.StatusHistory))
	for _, e := range o.StatusHistory {
		history = append(history, TrackingEntry{Status: e.Status, Note: e.Note, UpdatedAt: e.UpdatedAt})
	}
	return OrderTracking{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Shipping: TrackingShipping{
			Method:            o.Shipping.Method,
			TrackingNumber:    o.Shipping.TrackingNumber,
			EstimatedDelivery: o.Shipping.EstimatedDelivery,
			ShippedAt:         o.Shipping.ShippedAt,
			DeliveredAt:       o.Shipping.DeliveredAt,
		},
		StatusHistory: history,
		CreatedAt:     o.CreatedAt,
	}
}

type OrderStats struct {
	TotalOrders     int64   `json:"totalOrders"`
	TotalSpent      float64 `json:"totalSpent"`
	PendingOrders   int64   `json:"pendingOrders"`
	DeliveredOrders int64   `json:"deliveredOrders"`
}
