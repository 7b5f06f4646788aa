// Package orders turns item lists into orders and drives them through their
// lifecycle. Stock moves through the inventory package only.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/inventory"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/settings"
	"storefront/internal/store"
)

type Service struct {
	store     *store.Store
	inventory *inventory.Service
	notifier  *notify.Notifier
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(st *store.Store, inv *inventory.Service, notifier *notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:     st,
		inventory: inv,
		notifier:  notifier,
		logger:    logger.Named("orders"),
		tracer:    otel.Tracer("storefront/orders"),
		now:       time.Now,
	}
}

type ItemInput struct {
	ProductID string           `json:"product" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	Price     *float64         `json:"price"`
	Size      string           `json:"size"`
	Variants  []models.Variant `json:"variants"`
}

type ShippingInput struct {
	Method  string `json:"method"`
	Address string `json:"address"`
}

type PaymentInput struct {
	Method string `json:"method"`
}

type CreateInput struct {
	Items        []ItemInput          `json:"items" binding:"required,min=1,dive"`
	CustomerInfo *models.CustomerInfo `json:"customerInfo"`
	Shipping     ShippingInput        `json:"shipping"`
	Payment      PaymentInput         `json:"payment"`
	Pricing      *models.Pricing      `json:"pricing"`
	Notes        string               `json:"notes"`
}

func (in *CreateInput) normalize() ([]primitive.ObjectID, error) {
	var details []string
	if len(in.Items) == 0 {
		details = append(details, "items is required")
	}
	ids := make([]primitive.ObjectID, len(in.Items))
	for i, item := range in.Items {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			details = append(details, "items.product must be a valid id")
			continue
		}
		ids[i] = id
		if item.Quantity < 1 {
			details = append(details, "items.quantity must be at least 1")
		}
		if item.Price != nil && *item.Price < 0 {
			details = append(details, "items.price must not be negative")
		}
	}

	in.Payment.Method = strings.TrimSpace(in.Payment.Method)
	if in.Payment.Method == "" {
		in.Payment.Method = models.PaymentMethodCOD
	}
	if !models.ValidPaymentMethod(in.Payment.Method) {
		details = append(details, "payment.method must be one of cod, bank_transfer, upi")
	}
	in.Shipping.Method = strings.TrimSpace(in.Shipping.Method)
	if in.Shipping.Method == "" {
		in.Shipping.Method = models.ShippingStandard
	}
	if !models.ValidShippingMethod(in.Shipping.Method) {
		details = append(details, "shipping.method must be one of standard, express, priority")
	}
	if len(details) > 0 {
		return nil, apperr.Validation("validation failed", details...)
	}
	if in.Pricing != nil {
		if err := ValidatePricing(*in.Pricing); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Create places an order for userID. Cash and bank-transfer orders take
// their stock immediately; UPI orders take it when the payment completes.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, in CreateInput) (order *models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "orders.Create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	productIDs, err := in.normalize()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("payment.method", in.Payment.Method),
		attribute.Int("items", len(in.Items)),
	)

	user, err := s.store.Users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load customer")
	}

	now := s.now().UTC()
	number, err := s.nextOrderNumber(ctx, now)
	if err != nil {
		return nil, apperr.Internal(err, "draw order number")
	}

	policy := settings.FromContext(ctx)
	var levels []inventory.Level

	err = s.store.Tx.WithTx(ctx, func(ctx context.Context) error {
		levels = nil
		products, err := s.store.Products.GetMany(ctx, productIDs)
		if err != nil {
			return apperr.Internal(err, "load products")
		}

		items := make([]models.OrderItem, len(in.Items))
		for i, item := range in.Items {
			p, ok := products[productIDs[i]]
			if !ok || p.Status != models.ProductStatusActive {
				return apperr.NotFound("product %s not found", productIDs[i].Hex())
			}
			if p.Stock < item.Quantity {
				return apperr.InsufficientStock(p.ID.Hex(), p.Title, p.Stock, item.Quantity)
			}
			price := p.EffectivePrice()
			if item.Price != nil && *item.Price > 0 {
				price = *item.Price
			}
			items[i] = models.OrderItem{
				ProductID: p.ID,
				ProductInfo: models.ProductSnapshot{
					Title: p.Title,
					Price: price,
					Image: p.PrimaryImage(),
				},
				Quantity: item.Quantity,
				Price:    price,
				Size:     strings.TrimSpace(item.Size),
				Variants: item.Variants,
			}
		}

		pricing := ComputePricing(items, policy.ShippingFee(in.Shipping.Method))
		if in.Pricing != nil {
			pricing = *in.Pricing
		}

		customer := models.CustomerInfo{Name: user.DisplayName(), Email: user.Email, Phone: user.Phone, Company: user.Company}
		if in.CustomerInfo != nil && strings.TrimSpace(in.CustomerInfo.Name) != "" {
			customer = *in.CustomerInfo
		}

		order = &models.Order{
			OrderNumber:  number,
			CustomerID:   userID,
			CustomerInfo: customer,
			Items:        items,
			Pricing:      pricing,
			Payment: models.Payment{
				Method: in.Payment.Method,
				Status: models.PaymentStatusPending,
			},
			Status: models.OrderStatusPending,
			Shipping: models.Shipping{
				Method:  in.Shipping.Method,
				Address: strings.TrimSpace(in.Shipping.Address),
			},
			Notes: strings.TrimSpace(in.Notes),
			StatusHistory: []models.StatusEntry{{
				Status:    models.OrderStatusPending,
				UpdatedBy: &userID,
				UpdatedAt: now,
				Note:      "Order placed",
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}

		if models.ReservesAtCreation(in.Payment.Method) {
			levels, err = s.inventory.Reserve(ctx, inventory.LinesOf(items))
			if err != nil {
				return err
			}
			order.StockReserved = true
		}

		if err := s.store.Orders.Create(ctx, order); err != nil {
			return apperr.Internal(err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, asAppErr(err, "create order")
	}

	s.inventory.Settle(ctx, levels)
	s.notifier.Emit(ctx, notify.NewOrder(*order, user.DisplayName()))
	metrics.OrderCreated(order.Payment.Method)
	s.logger.Info("order created",
		zap.String("orderNumber", order.OrderNumber),
		zap.String("customer", userID.Hex()),
		zap.String("paymentMethod", order.Payment.Method),
		zap.Float64("total", order.Pricing.Total),
		zap.Bool("stockReserved", order.StockReserved),
	)

	if err := s.populate(ctx, []*models.Order{order}, true); err != nil {
		s.logger.Warn("order populate failed", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
	}
	return order, nil
}

// asAppErr maps leftover store errors onto the taxonomy.
func asAppErr(err error, op string) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, store.ErrVersionConflict):
		return apperr.Conflict("order was modified by another request, please retry")
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("order not found")
	default:
		return apperr.Internal(err, op)
	}
}
