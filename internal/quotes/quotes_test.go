package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
)

var fixedNow = time.Date(2026, time.April, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	st       *store.Store
	business models.Caller
	retail   models.Caller
	admin    models.Caller
	product  primitive.ObjectID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New().Store()
	logger := zaptest.NewLogger(t)
	svc := NewService(st, notify.NewNotifier(logger, notify.NewStoreSink(st.Notifications)), logger)
	svc.now = func() time.Time { return fixedNow }

	business := &models.User{
		Name: "Ravi", Email: "ravi@traders.in", Company: "Ravi Traders", Role: models.RoleUser,
		CustomerType: models.CustomerB2B, ApprovalStatus: models.ApprovalApproved,
	}
	retail := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleUser, CustomerType: models.CustomerB2C}
	require.NoError(t, st.Users.Create(ctx, business))
	require.NoError(t, st.Users.Create(ctx, retail))

	p := &models.Product{Title: "Steel Bottle", Price: 450, Stock: 20, Status: models.ProductStatusActive}
	require.NoError(t, st.Products.Create(ctx, p))

	return &fixture{
		svc:      svc,
		st:       st,
		business: models.Caller{UserID: business.ID, Role: models.RoleUser},
		retail:   models.Caller{UserID: retail.ID, Role: models.RoleUser},
		admin:    models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleAdmin},
		product:  p.ID,
	}
}

func (f *fixture) request(t *testing.T, qty int) *models.Quotation {
	t.Helper()
	q, err := f.svc.Request(context.Background(), f.business.UserID, RequestInput{
		ProductID: f.product.Hex(), Quantity: qty, Specifications: "engraved logo",
	})
	require.NoError(t, err)
	return q
}

func TestRequestQuotation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q := f.request(t, 250)
	assert.Equal(t, models.QuoteStatusPending, q.Status)
	assert.Equal(t, 250, q.Quantity)
	require.NotNil(t, q.Product)
	assert.Equal(t, "Steel Bottle", q.Product.Title)

	notes, total, err := f.st.Notifications.List(ctx, store.NotificationFilter{Type: models.NotificationQuoteRequest})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Contains(t, notes[0].Message, "Ravi Traders")
	assert.Equal(t, "Quotation", notes[0].RelatedModel)
}

func TestRequestQuotationRejectsIneligibleCallers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, f.retail.UserID, RequestInput{ProductID: f.product.Hex(), Quantity: 10})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	pending := &models.User{
		Name: "New Co", Email: "new@co.in", Company: "New Co", Role: models.RoleUser,
		CustomerType: models.CustomerB2B, ApprovalStatus: models.ApprovalPending,
	}
	require.NoError(t, f.st.Users.Create(ctx, pending))
	_, err = f.svc.Request(ctx, pending.ID, RequestInput{ProductID: f.product.Hex(), Quantity: 10})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Request(ctx, f.business.UserID, RequestInput{ProductID: "nope", Quantity: 10})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Request(ctx, f.business.UserID, RequestInput{ProductID: f.product.Hex(), Quantity: 0})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Request(ctx, f.business.UserID, RequestInput{ProductID: primitive.NewObjectID().Hex(), Quantity: 5})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.st.Products.SetStatus(ctx, []primitive.ObjectID{f.product}, models.ProductStatusInactive)
	require.NoError(t, err)
	_, err = f.svc.Request(ctx, f.business.UserID, RequestInput{ProductID: f.product.Hex(), Quantity: 5})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRespondPricesFromProductByDefault(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.request(t, 3)

	quoted, err := f.svc.Respond(ctx, f.admin.UserID, q.ID, RespondInput{Status: models.QuoteStatusQuoted, AdminNotes: " bulk rate "})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusQuoted, quoted.Status)
	require.NotNil(t, quoted.QuotedPrice)
	assert.Equal(t, 450.0, quoted.QuotedPrice.UnitPrice)
	assert.Equal(t, 1350.0, quoted.QuotedPrice.TotalPrice)
	assert.Equal(t, fixedNow.AddDate(0, 0, DefaultValidityDays), quoted.QuotedPrice.ValidUntil)
	assert.Equal(t, "bulk rate", quoted.AdminNotes)
	require.NotNil(t, quoted.Customer)
	assert.Equal(t, "ravi@traders.in", quoted.Customer.Email)

	unit := 399.99
	approved, err := f.svc.Respond(ctx, f.admin.UserID, q.ID, RespondInput{Status: models.QuoteStatusApproved, UnitPrice: &unit, ValidityDays: 30})
	require.NoError(t, err)
	assert.Equal(t, 1199.97, approved.QuotedPrice.TotalPrice)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), approved.QuotedPrice.ValidUntil)

	rejected, err := f.svc.Respond(ctx, f.admin.UserID, q.ID, RespondInput{Status: models.QuoteStatusRejected})
	require.NoError(t, err)
	assert.Nil(t, rejected.QuotedPrice)
	require.NotNil(t, rejected.RespondedBy)
	assert.Equal(t, f.admin.UserID, *rejected.RespondedBy)
}

func TestRespondValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.request(t, 3)

	for _, in := range []RespondInput{
		{Status: "maybe"},
		{Status: models.QuoteStatusPending},
		{Status: models.QuoteStatusQuoted, ValidityDays: 365},
		{Status: models.QuoteStatusQuoted, UnitPrice: new(float64)},
	} {
		_, err := f.svc.Respond(ctx, f.admin.UserID, q.ID, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "input %+v", in)
	}

	_, err := f.svc.Respond(ctx, f.admin.UserID, primitive.NewObjectID(), RespondInput{Status: models.QuoteStatusRejected})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.st.Products.Delete(ctx, f.product))
	_, err = f.svc.Respond(ctx, f.admin.UserID, q.ID, RespondInput{Status: models.QuoteStatusQuoted})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListingsAndAccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.request(t, 10)
	f.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second := f.request(t, 20)

	_, err := f.svc.Respond(ctx, f.admin.UserID, first.ID, RespondInput{Status: models.QuoteStatusQuoted, ValidityDays: 1})
	require.NoError(t, err)

	mine, total, err := f.svc.ListMine(ctx, f.business.UserID, "", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Nil(t, mine[0].Customer)

	pending, total, err := f.svc.AdminList(ctx, models.QuoteStatusPending, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, pending[0].Customer)

	_, total, err = f.svc.AdminList(ctx, "all", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = f.svc.AdminList(ctx, "archived", store.Page{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Get(ctx, f.retail, first.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := f.svc.Get(ctx, f.business, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusQuoted, got.Status)

	f.svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 3) }
	lapsed, err := f.svc.Get(ctx, f.admin, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusExpired, lapsed.Status)

	stored, err := f.st.Quotations.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusQuoted, stored.Status)
}
