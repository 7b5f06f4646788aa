package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationNewOrder          = "new_order"
	NotificationLowStock          = "low_stock"
	NotificationPaymentReceived   = "payment_received"
	NotificationOrderStatusUpdate = "order_status_update"
	NotificationStockAlert        = "stock_alert"
	NotificationSystemAlert       = "system_alert"
	NotificationQuoteRequest      = "quote_request"

	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Notification is an admin-facing event record. Core logic never reads it
// back.
type Notification struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type         string              `bson:"type" json:"type"`
	Title        string              `bson:"title" json:"title"`
	Message      string              `bson:"message" json:"message"`
	UserID       *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	IsRead       bool                `bson:"isRead" json:"isRead"`
	Priority     string              `bson:"priority" json:"priority"`
	Data         map[string]any      `bson:"data,omitempty" json:"data,omitempty"`
	RelatedModel string              `bson:"relatedModel,omitempty" json:"relatedModel,omitempty"`
	RelatedID    *primitive.ObjectID `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	ReadAt       *time.Time          `bson:"readAt,omitempty" json:"readAt,omitempty"`
	ReadBy       *primitive.ObjectID `bson:"readBy,omitempty" json:"readBy,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}

func ValidNotificationPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type NotificationStats struct {
	Total    int64 `json:"total"`
	Unread   int64 `json:"unread"`
	High     int64 `json:"high"`
	Critical int64 `json:"critical"`
}
