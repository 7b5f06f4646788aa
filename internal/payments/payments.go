// Package payments reconciles the payment sub-record of orders from manual
// UPI verification and from gateway webhooks.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/inventory"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/settings"
	"storefront/internal/upi"
)

const autoVerified = "AUTO_VERIFIED"

type Service struct {
	orders        *orders.Service
	inventory     *inventory.Service
	notifier      *notify.Notifier
	merchant      upi.Merchant
	webhookSecret []byte
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
	newTxnRef     func() string
}

func NewService(orderSvc *orders.Service, inv *inventory.Service, notifier *notify.Notifier, merchant upi.Merchant, webhookSecret string, logger *zap.Logger) *Service {
	return &Service{
		orders:        orderSvc,
		inventory:     inv,
		notifier:      notifier,
		merchant:      merchant,
		webhookSecret: []byte(webhookSecret),
		logger:        logger.Named("payments"),
		tracer:        otel.Tracer("storefront/payments"),
		now:           time.Now,
		newTxnRef:     func() string { return "TXN_" + ulid.Make().String() },
	}
}

// OrderRef is the short order view returned by payment endpoints.
type OrderRef struct {
	ID          primitive.ObjectID `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Status      string             `json:"status"`
	Amount      float64            `json:"amount"`
}

func refOf(o *models.Order) OrderRef {
	return OrderRef{ID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, Amount: o.Pricing.Total}
}

// Receipt is the outcome of a verification.
type Receipt struct {
	AlreadyVerified bool           `json:"alreadyVerified"`
	Order           OrderRef       `json:"order"`
	Payment         models.Payment `json:"payment"`
}

func parseOrderID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("validation failed", "orderId must be a valid id")
	}
	return id, nil
}

// merchantFor prefers the merchant from the runtime settings.
func (s *Service) merchantFor(ctx context.Context) upi.Merchant {
	m := s.merchant
	current := settings.FromContext(ctx)
	if current.MerchantUPI != "" {
		m.VPA = current.MerchantUPI
	}
	if current.MerchantName != "" {
		m.Name = current.MerchantName
	}
	return m
}

// completion is the shared bookkeeping of a payment turning completed.
type completion struct {
	levels []inventory.Level
	alert  string
}

// complete takes stock for an order that holds none. A shortfall does not
// undo the payment; it is reported through alert instead.
func (s *Service) complete(ctx context.Context, o *models.Order, update *models.OrderUpdate, c *completion) error {
	if o.StockReserved || o.Status == models.OrderStatusCancelled {
		if o.Status == models.OrderStatusCancelled {
			c.alert = "order is cancelled"
		}
		return nil
	}
	levels, err := s.inventory.Reserve(ctx, inventory.LinesOf(o.Items))
	switch {
	case err == nil:
		c.levels = levels
		reserved := true
		update.StockReserved = &reserved
		return nil
	case apperr.Is(err, apperr.KindInsufficientStock), apperr.Is(err, apperr.KindNotFound):
		c.alert = err.Error()
		return nil
	default:
		return err
	}
}

func (s *Service) afterCompletion(ctx context.Context, o *models.Order, c completion, source string) {
	s.inventory.Settle(ctx, c.levels)
	if c.alert != "" {
		s.logger.Error("paid order without stock",
			zap.String("orderNumber", o.OrderNumber),
			zap.String("reason", c.alert),
		)
		s.notifier.Emit(ctx, notify.StockAlert(*o, c.alert))
	}
	s.notifier.Emit(ctx, notify.PaymentReceived(*o))
	metrics.PaymentProcessed(source, models.PaymentStatusCompleted)
}

type VerifyInput struct {
	OrderID          string `json:"orderId" binding:"required"`
	TransactionID    string `json:"transactionId"`
	UPITransactionID string `json:"upiTransactionId"`
	UPIID            string `json:"upiId"`
	UPIProvider      string `json:"upiProvider"`
}

// VerifyUPI marks a UPI payment completed and confirms the order. A second
// call on a completed payment returns the stored state untouched.
func (s *Service) VerifyUPI(ctx context.Context, caller models.Caller, in VerifyInput) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "payments.VerifyUPI")
	defer span.End()

	id, err := parseOrderID(in.OrderID)
	if err != nil {
		return nil, err
	}

	var c completion
	m, err := s.orders.Mutate(ctx, id, func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error) {
		c = completion{}
		if !caller.Owns(o.CustomerID) {
			return nil, apperr.Forbidden("you can only verify payments for your own orders")
		}
		if o.Payment.Status == models.PaymentStatusCompleted {
			return nil, nil
		}
		if o.Status == models.OrderStatusCancelled {
			return nil, apperr.Conflict("order %s is cancelled", o.OrderNumber)
		}

		now := s.now().UTC()
		upiTxn := strings.TrimSpace(in.UPITransactionID)
		if upiTxn == "" {
			upiTxn = autoVerified
		}
		txn := strings.TrimSpace(in.TransactionID)
		if txn == "" {
			txn = o.Payment.TransactionID
		}
		if txn == "" {
			txn = upiTxn
		}
		status := models.OrderStatusConfirmed
		update := &models.OrderUpdate{
			Payment: &models.Payment{
				Method:           models.PaymentMethodUPI,
				Status:           models.PaymentStatusCompleted,
				TransactionID:    txn,
				UPITransactionID: upiTxn,
				UPIID:            strings.TrimSpace(in.UPIID),
				UPIProvider:      strings.TrimSpace(in.UPIProvider),
				PaidAt:           &now,
			},
			History: &models.StatusEntry{
				Status:    status,
				UpdatedBy: &caller.UserID,
				UpdatedAt: now,
				Note:      fmt.Sprintf("Payment verified via UPI (Transaction ID: %s)", upiTxn),
			},
			UpdatedAt: now,
		}
		if o.Status == models.OrderStatusPending {
			update.Status = &status
		} else {
			update.History.Status = o.Status
		}
		return update, s.complete(ctx, o, update, &c)
	})
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{AlreadyVerified: !m.Changed, Order: refOf(m.Order), Payment: m.Order.Payment}
	if !m.Changed {
		return receipt, nil
	}

	s.afterCompletion(ctx, m.Order, c, "verify")
	if m.Previous.Status != m.Order.Status {
		metrics.OrderStatusChanged(m.Order.Status)
	}
	s.logger.Info("upi payment verified",
		zap.String("orderNumber", m.Order.OrderNumber),
		zap.String("upiTransactionId", m.Order.Payment.UPITransactionID),
		zap.Bool("stockReserved", m.Order.StockReserved),
	)
	return receipt, nil
}
