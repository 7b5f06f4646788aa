package notify

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const highValueOrder = 50000

func rupees(amount float64) string {
	return "₹" + decimal.NewFromFloat(amount).StringFixed(2)
}

func related(model string, id primitive.ObjectID) (string, *primitive.ObjectID) {
	return model, &id
}

func NewOrder(o models.Order, customer string) models.Notification {
	priority := models.PriorityMedium
	if o.Pricing.Total > highValueOrder {
		priority = models.PriorityHigh
	}
	model, id := related("Order", o.ID)
	customerID := o.CustomerID
	return models.Notification{
		Type:     models.NotificationNewOrder,
		Title:    "New Order Placed",
		Message:  fmt.Sprintf("Order #%s worth %s placed by %s", o.OrderNumber, rupees(o.Pricing.Total), customer),
		UserID:   &customerID,
		Priority: priority,
		Data: map[string]any{
			"orderNumber":   o.OrderNumber,
			"total":         o.Pricing.Total,
			"itemCount":     o.ItemCount(),
			"paymentMethod": o.Payment.Method,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}

func LowStock(productID primitive.ObjectID, title string, stock, threshold int) models.Notification {
	priority := models.PriorityMedium
	if stock <= 5 {
		priority = models.PriorityHigh
	}
	model, id := related("Product", productID)
	return models.Notification{
		Type:     models.NotificationLowStock,
		Title:    "Low Stock Alert",
		Message:  fmt.Sprintf("%s is running low on stock (only %d units left)", title, stock),
		Priority: priority,
		Data: map[string]any{
			"productName":  title,
			"currentStock": stock,
			"threshold":    threshold,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}

func PaymentReceived(o models.Order) models.Notification {
	model, id := related("Order", o.ID)
	customerID := o.CustomerID
	return models.Notification{
		Type:     models.NotificationPaymentReceived,
		Title:    "Payment Received",
		Message:  fmt.Sprintf("Payment of %s received for Order #%s", rupees(o.Pricing.Total), o.OrderNumber),
		UserID:   &customerID,
		Priority: models.PriorityLow,
		Data: map[string]any{
			"orderNumber":   o.OrderNumber,
			"amount":        o.Pricing.Total,
			"paymentMethod": o.Payment.Method,
			"transactionId": o.Payment.TransactionID,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}

var statusPhrases = map[string]string{
	models.OrderStatusConfirmed:  "has been confirmed",
	models.OrderStatusProcessing: "is being processed",
	models.OrderStatusShipped:    "has been shipped",
	models.OrderStatusDelivered:  "has been delivered",
	models.OrderStatusCancelled:  "has been cancelled",
}

func OrderStatusUpdate(o models.Order, previous string) models.Notification {
	phrase, ok := statusPhrases[o.Status]
	if !ok {
		phrase = "status updated to " + o.Status
	}
	priority := models.PriorityLow
	if o.Status == models.OrderStatusCancelled {
		priority = models.PriorityMedium
	}
	model, id := related("Order", o.ID)
	customerID := o.CustomerID
	return models.Notification{
		Type:     models.NotificationOrderStatusUpdate,
		Title:    "Order Status Update",
		Message:  fmt.Sprintf("Order #%s %s", o.OrderNumber, phrase),
		UserID:   &customerID,
		Priority: priority,
		Data: map[string]any{
			"orderNumber":    o.OrderNumber,
			"previousStatus": previous,
			"newStatus":      o.Status,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}

// StockAlert flags a paid order whose items could not be reserved.
func StockAlert(o models.Order, reason string) models.Notification {
	model, id := related("Order", o.ID)
	return models.Notification{
		Type:     models.NotificationStockAlert,
		Title:    "Paid Order Without Stock",
		Message:  fmt.Sprintf("Order #%s was paid but stock could not be reserved: %s", o.OrderNumber, reason),
		Priority: models.PriorityCritical,
		Data: map[string]any{
			"orderNumber": o.OrderNumber,
			"reason":      reason,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}

func QuoteRequest(q models.Quotation, customer, product string) models.Notification {
	model, id := related("Quotation", q.ID)
	customerID := q.CustomerID
	return models.Notification{
		Type:     models.NotificationQuoteRequest,
		Title:    "New Quotation Request",
		Message:  fmt.Sprintf("%s requested a quote for %d x %s", customer, q.Quantity, product),
		UserID:   &customerID,
		Priority: models.PriorityMedium,
		Data: map[string]any{
			"product":  product,
			"quantity": q.Quantity,
		},
		RelatedModel: model,
		RelatedID:    id,
	}
}
