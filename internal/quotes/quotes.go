// Package quotes handles bulk quotation requests from approved B2B customers
// and the admin's priced answer to them.
package quotes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

const (
	DefaultValidityDays = 7
	MaxValidityDays     = 90
)

type Service struct {
	quotes   store.QuotationStore
	users    store.UserStore
	products store.ProductStore
	notifier *notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(st *store.Store, notifier *notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		quotes:   st.Quotations,
		users:    st.Users,
		products: st.Products,
		notifier: notifier,
		logger:   logger.Named("quotes"),
		now:      time.Now,
	}
}

type RequestInput struct {
	ProductID      string `json:"productId" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	Specifications string `json:"specifications"`
	Notes          string `json:"notes"`
}

type RespondInput struct {
	Status       string   `json:"status" binding:"required"`
	UnitPrice    *float64 `json:"unitPrice"`
	ValidityDays int      `json:"validityDays"`
	AdminNotes   string   `json:"adminNotes"`
}

// Request files a quotation for one product. Only approved B2B accounts
// may ask.
func (s *Service) Request(ctx context.Context, customerID primitive.ObjectID, in RequestInput) (*models.Quotation, error) {
	productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ProductID))
	if err != nil {
		return nil, apperr.Validation("validation failed", "productId is invalid")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("validation failed", "quantity must be at least 1")
	}

	customer, err := s.users.Get(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load customer")
	}
	if !customer.IsB2B() {
		return nil, apperr.Forbidden("quotation requests are only available to B2B customers")
	}
	if !customer.Approved() {
		return nil, apperr.Forbidden("your business account is awaiting approval")
	}

	product, err := s.products.Get(ctx, productID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && product.Status != models.ProductStatusActive) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load product")
	}

	now := s.now().UTC()
	q := &models.Quotation{
		CustomerID:     customerID,
		ProductID:      productID,
		Quantity:       in.Quantity,
		Specifications: strings.TrimSpace(in.Specifications),
		Notes:          strings.TrimSpace(in.Notes),
		Status:         models.QuoteStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, apperr.Internal(err, "create quotation")
	}
	q.Product = product.Summary()
	q.Customer = customer.Summary()

	metrics.QuotationEvent(q.Status)
	s.notifier.Emit(ctx, notify.QuoteRequest(*q, customer.DisplayName(), product.Title))
	s.logger.Info("quotation requested",
		zap.String("quotation", q.ID.Hex()),
		zap.String("customer", customerID.Hex()),
		zap.String("product", productID.Hex()),
		zap.Int("quantity", q.Quantity),
	)
	return q, nil
}

func statusFilter(status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" || status == "all" {
		return "", nil
	}
	if !models.ValidQuoteStatus(status) {
		return "", apperr.Validation("invalid status filter")
	}
	return status, nil
}

func (s *Service) ListMine(ctx context.Context, customerID primitive.ObjectID, status string, page store.Page) ([]models.Quotation, int64, error) {
	status, err := statusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, store.QuotationFilter{CustomerID: &customerID, Status: status, Page: page}, false)
}

func (s *Service) AdminList(ctx context.Context, status string, page store.Page) ([]models.Quotation, int64, error) {
	status, err := statusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, store.QuotationFilter{Status: status, Page: page}, true)
}

func (s *Service) list(ctx context.Context, f store.QuotationFilter, withCustomers bool) ([]models.Quotation, int64, error) {
	quotes, total, err := s.quotes.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list quotations")
	}
	if err := s.decorate(ctx, quotes, withCustomers); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// Get returns a quotation to its owner or an admin.
func (s *Service) Get(ctx context.Context, caller models.Caller, id primitive.ObjectID) (*models.Quotation, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(q.CustomerID) {
		return nil, apperr.Forbidden("you can only view your own quotation requests")
	}
	one := []models.Quotation{*q}
	if err := s.decorate(ctx, one, caller.IsAdmin()); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Quotation, error) {
	q, err := s.quotes.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("quotation request not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "load quotation")
	}
	return q, nil
}

// Respond records the admin's answer. An approved or quoted answer carries a
// price: the given unit price, else the product's current price, valid for
// ValidityDays.
func (s *Service) Respond(ctx context.Context, adminID, id primitive.ObjectID, in RespondInput) (*models.Quotation, error) {
	status := strings.TrimSpace(in.Status)
	switch status {
	case models.QuoteStatusApproved, models.QuoteStatusQuoted, models.QuoteStatusRejected:
	default:
		return nil, apperr.Validation("invalid status", "status must be approved, quoted or rejected")
	}
	days := in.ValidityDays
	if days == 0 {
		days = DefaultValidityDays
	}
	if days < 0 || days > MaxValidityDays {
		return nil, apperr.Validation("validation failed", "validityDays must be between 1 and 90")
	}
	if in.UnitPrice != nil && *in.UnitPrice <= 0 {
		return nil, apperr.Validation("validation failed", "unitPrice must be positive")
	}

	var updated *models.Quotation
	err := store.RetryOnConflict(ctx, func(ctx context.Context) error {
		q, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		resp := models.QuotationResponse{
			Status:      status,
			AdminNotes:  strings.TrimSpace(in.AdminNotes),
			RespondedBy: adminID,
			RespondedAt: now,
		}
		if status != models.QuoteStatusRejected {
			price, err := s.quotedPrice(ctx, q, in.UnitPrice, now.AddDate(0, 0, days))
			if err != nil {
				return err
			}
			resp.QuotedPrice = price
		}
		updated, err = s.quotes.Respond(ctx, id, q.Version, resp)
		return err
	})
	var appErr *apperr.Error
	switch {
	case err == nil:
	case errors.As(err, &appErr):
		return nil, err
	case errors.Is(err, store.ErrVersionConflict):
		return nil, apperr.Conflict("quotation was modified by another request, please retry")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("quotation request not found")
	default:
		return nil, apperr.Internal(err, "respond to quotation")
	}

	metrics.QuotationEvent(updated.Status)
	s.logger.Info("quotation answered",
		zap.String("quotation", id.Hex()),
		zap.String("status", updated.Status),
		zap.String("admin", adminID.Hex()),
	)
	one := []models.Quotation{*updated}
	if err := s.decorate(ctx, one, true); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *Service) quotedPrice(ctx context.Context, q *models.Quotation, unitPrice *float64, validUntil time.Time) (*models.QuotedPrice, error) {
	var unit decimal.Decimal
	if unitPrice != nil {
		unit = decimal.NewFromFloat(*unitPrice)
	} else {
		product, err := s.products.Get(ctx, q.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Validation("validation failed", "unitPrice is required because the product no longer exists")
		}
		if err != nil {
			return nil, apperr.Internal(err, "load product")
		}
		unit = decimal.NewFromFloat(product.EffectivePrice())
	}
	unit = unit.Round(2)
	total := unit.Mul(decimal.NewFromInt(int64(q.Quantity))).Round(2)
	return &models.QuotedPrice{
		UnitPrice:  unit.InexactFloat64(),
		TotalPrice: total.InexactFloat64(),
		ValidUntil: validUntil,
	}, nil
}

// decorate joins product and customer summaries and reports lapsed offers
// as expired.
func (s *Service) decorate(ctx context.Context, quotes []models.Quotation, withCustomers bool) error {
	if len(quotes) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(quotes))
	for _, q := range quotes {
		ids = append(ids, q.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return apperr.Internal(err, "load quotation products")
	}
	customers := map[primitive.ObjectID]*models.UserSummary{}
	now := s.now().UTC()
	for i := range quotes {
		q := &quotes[i]
		q.Status = q.EffectiveStatus(now)
		if p, ok := products[q.ProductID]; ok {
			q.Product = p.Summary()
		}
		if !withCustomers {
			continue
		}
		summary, seen := customers[q.CustomerID]
		if !seen {
			u, err := s.users.Get(ctx, q.CustomerID)
			switch {
			case err == nil:
				summary = u.Summary()
			case !errors.Is(err, store.ErrNotFound):
				return apperr.Internal(err, "load quotation customer")
			}
			customers[q.CustomerID] = summary
		}
		q.Customer = summary
	}
	return nil
}
