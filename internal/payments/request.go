package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/upi"
)

// PaymentRequest is what a customer needs to pay an order by UPI.
type PaymentRequest struct {
	TransactionID  string             `json:"transactionId"`
	TotalAmount    float64            `json:"totalAmount"`
	MerchantAmount float64            `json:"merchantAmount"`
	ServiceFee     float64            `json:"serviceFee"`
	UPILink        string             `json:"upiLink"`
	QRCode         string             `json:"qrCode"`
	MerchantUPI    string             `json:"merchantUPI"`
	MerchantName   string             `json:"merchantName"`
	Timestamp      time.Time          `json:"timestamp"`
	OrderID        primitive.ObjectID `json:"orderId"`
	Description    string             `json:"description"`
}

func ownedBy(caller models.Caller, o *models.Order) error {
	if o.CustomerID != caller.UserID {
		return apperr.Forbidden("not authorized to access this order")
	}
	return nil
}

func linkError(err error) error {
	if errors.Is(err, upi.ErrInvalidAmount) {
		return apperr.Validation("invalid order amount")
	}
	return err
}

// GenerateRequest issues a fresh transaction reference for the order and
// resets its payment record to a pending UPI payment.
func (s *Service) GenerateRequest(ctx context.Context, caller models.Caller, orderID primitive.ObjectID) (*PaymentRequest, error) {
	merchant := s.merchantFor(ctx)
	var (
		link upi.PaymentLink
		ref  string
		note string
	)
	m, err := s.orders.Mutate(ctx, orderID, func(ctx context.Context, o *models.Order) (*models.OrderUpdate, error) {
		if err := ownedBy(caller, o); err != nil {
			return nil, err
		}
		if o.Payment.Status == models.PaymentStatusCompleted {
			return nil, apperr.Conflict("order %s is already paid", o.OrderNumber)
		}
		if o.Status == models.OrderStatusCancelled {
			return nil, apperr.Validation("cancelled orders cannot be paid")
		}
		ref = s.newTxnRef()
		note = "Payment for Order #" + o.OrderNumber
		var err error
		link, err = upi.Link(merchant, o.Pricing.Total, ref, note)
		if err != nil {
			return nil, linkError(err)
		}
		return &models.OrderUpdate{
			Payment: &models.Payment{
				Method:        models.PaymentMethodUPI,
				Status:        models.PaymentStatusPending,
				TransactionID: ref,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	qr, err := upi.QRCode(link.URL)
	if err != nil {
		return nil, apperr.Internal(err, "generate qr code")
	}
	s.logger.Info("upi payment request issued",
		zap.String("orderNumber", m.Order.OrderNumber),
		zap.String("transactionId", ref),
	)
	return &PaymentRequest{
		TransactionID:  ref,
		TotalAmount:    link.TotalAmount,
		MerchantAmount: link.MerchantAmount,
		ServiceFee:     link.ServiceFee,
		UPILink:        link.URL,
		QRCode:         qr,
		MerchantUPI:    merchant.VPA,
		MerchantName:   merchant.Name,
		Timestamp:      s.now().UTC(),
		OrderID:        m.Order.ID,
		Description:    note,
	}, nil
}

type StatusInput struct {
	OrderID       string `json:"orderId" binding:"required"`
	TransactionID string `json:"transactionId" binding:"required"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusPending = "PENDING"
)

type StatusReport struct {
	Status  string         `json:"status"`
	Order   OrderRef       `json:"order"`
	Payment models.Payment `json:"payment"`
}

// CheckStatus reports SUCCESS only for a completed payment under the given
// transaction reference.
func (s *Service) CheckStatus(ctx context.Context, caller models.Caller, in StatusInput) (*StatusReport, error) {
	id, err := parseOrderID(in.OrderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	status := StatusPending
	switch {
	case order.Payment.Status == models.PaymentStatusCompleted && order.Payment.TransactionID == strings.TrimSpace(in.TransactionID):
		status = StatusSuccess
	case order.Payment.Status == models.PaymentStatusFailed:
		status = StatusFailed
	}
	return &StatusReport{Status: status, Order: refOf(order), Payment: order.Payment}, nil
}

type CollectInput struct {
	OrderID       string  `json:"orderId" binding:"required"`
	TransactionID string  `json:"transactionId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	UPIID         string  `json:"upiId"`
}

type CollectQR struct {
	QRCode        string  `json:"qrCode"`
	UPIURL        string  `json:"upiUrl"`
	MerchantUPI   string  `json:"merchantUPI"`
	Amount        float64 `json:"amount"`
	CustomerUPIID string  `json:"customerUpiId,omitempty"`
}

// CollectQR re-renders the QR for a transaction reference issued earlier.
// The amount is always the order total, never the client's.
func (s *Service) CollectQR(ctx context.Context, caller models.Caller, in CollectInput) (*CollectQR, error) {
	id, err := parseOrderID(in.OrderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(caller, order); err != nil {
		return nil, err
	}
	if order.Payment.TransactionID == "" || order.Payment.TransactionID != strings.TrimSpace(in.TransactionID) {
		return nil, apperr.Validation("invalid transaction reference for this order")
	}

	merchant := s.merchantFor(ctx)
	link, err := upi.Link(merchant, order.Pricing.Total, order.Payment.TransactionID, "Order "+order.OrderNumber)
	if err != nil {
		return nil, linkError(err)
	}
	qr, err := upi.QRCode(link.URL)
	if err != nil {
		return nil, apperr.Internal(err, "generate qr code")
	}
	return &CollectQR{
		QRCode:        qr,
		UPIURL:        link.URL,
		MerchantUPI:   merchant.VPA,
		Amount:        link.TotalAmount,
		CustomerUPIID: strings.TrimSpace(in.UPIID),
	}, nil
}
