package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/inventory"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/orders"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Payment-Signature"

type WebhookEvent struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// Sign returns the signature a gateway sends for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) checkSignature(body []byte, signature string) error {
	if len(s.webhookSecret) == 0 {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return apperr.Unauthorized("invalid webhook signature")
	}
	want, _ := hex.DecodeString(Sign(s.webhookSecret, body))
	if !hmac.Equal(got, want) {
		return apperr.Unauthorized("invalid webhook signature")
	}
	return nil
}

// HandleWebhook applies a gateway status report. Redelivery of the same
// status and payment id changes nothing.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "payments.HandleWebhook")
	defer span.End()

	if err := s.checkSignature(body, signature); err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err))
		return nil, err
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperr.Validation("invalid webhook payload", err.Error())
	}
	id, err := parseOrderID(event.OrderID)
	if err != nil {
		return nil, err
	}
	event.Status = strings.TrimSpace(event.Status)
	if !models.ValidPaymentStatus(event.Status) {
		return nil, apperr.Validation("validation failed", "status must be one of pending, completed, failed, refunded")
	}
	paymentID := strings.TrimSpace(event.PaymentID)

	var (
		c        completion
		released []inventory.Level
	)
	m, err := s.orders.Mutate(ctx, id, func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error) {
		c = completion{}
		released = nil
		if o.Payment.Status == event.Status && o.Payment.TransactionID == paymentID {
			return nil, nil
		}

		now := s.now().UTC()
		payment := o.Payment
		payment.Status = event.Status
		payment.TransactionID = paymentID
		update := &models.OrderUpdate{Payment: &payment, UpdatedAt: now}

		switch event.Status {
		case models.PaymentStatusCompleted:
			payment.PaidAt = &now
			// Only a pending order moves to confirmed; later stages keep
			// their status and just log the payment.
			update.History = &models.StatusEntry{
				Status:    o.Status,
				UpdatedAt: now,
				Note:      "Payment completed",
			}
			if o.Status == models.OrderStatusPending {
				confirmed := models.OrderStatusConfirmed
				update.Status = &confirmed
				update.History.Status = confirmed
			}
			return update, s.complete(ctx, o, update, &c)
		case models.PaymentStatusFailed:
			if o.StockReserved && orders.Cancellable(o.Status) {
				levels, err := s.inventory.Release(ctx, inventory.LinesOf(o.Items))
				if err != nil {
					return nil, err
				}
				released = levels
				reserved := false
				update.StockReserved = &reserved
			}
		}
		return update, nil
	})
	if err != nil {
		return nil, err
	}
	if !m.Changed {
		s.logger.Info("duplicate webhook ignored",
			zap.String("orderNumber", m.Order.OrderNumber),
			zap.String("status", event.Status),
		)
		return m.Order, nil
	}

	s.inventory.Invalidate(ctx, released)
	if event.Status == models.PaymentStatusCompleted && m.Previous.Payment.Status != models.PaymentStatusCompleted {
		s.afterCompletion(ctx, m.Order, c, "webhook")
	} else {
		s.inventory.Settle(ctx, c.levels)
		metrics.PaymentProcessed("webhook", event.Status)
	}
	if m.Previous.Status != m.Order.Status {
		metrics.OrderStatusChanged(m.Order.Status)
	}
	s.logger.Info("payment webhook applied",
		zap.String("orderNumber", m.Order.OrderNumber),
		zap.String("status", event.Status),
		zap.String("paymentId", paymentID),
		zap.Bool("stockReleased", len(released) > 0),
	)
	return m.Order, nil
}
