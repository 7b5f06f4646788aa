package orders

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/apperr"
	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	st    *store.Store
	buyer models.Caller
	admin models.Caller
}

func setup(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New().Store()
	logger := zaptest.NewLogger(t)
	notifier := notify.NewNotifier(logger, notify.NewStoreSink(st.Notifications))
	inv := inventory.NewService(st.Products, nil, notifier, logger)
	svc := NewService(st, inv, notifier, logger)
	svc.now = func() time.Time { return fixedNow }

	buyer := &models.User{Name: "Asha", Email: "asha@example.com", Phone: "9000000000", Role: models.RoleUser}
	require.NoError(t, st.Users.Create(context.Background(), buyer))
	return &fixture{
		svc:   svc,
		st:    st,
		buyer: models.Caller{UserID: buyer.ID, Role: models.RoleUser},
		admin: models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleAdmin},
	}
}

func (f *fixture) product(t *testing.T, title string, price float64, stock int) primitive.ObjectID {
	t.Helper()
	p := &models.Product{Title: title, Description: title, Price: price, Stock: stock, Status: models.ProductStatusActive}
	require.NoError(t, f.st.Products.Create(context.Background(), p))
	return p.ID
}

func (f *fixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.st.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) place(t *testing.T, method string, lines ...ItemInput) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), f.buyer.UserID, CreateInput{
		Items:   lines,
		Payment: PaymentInput{Method: method},
	})
	require.NoError(t, err)
	return order
}

func line(id primitive.ObjectID, qty int) ItemInput {
	return ItemInput{ProductID: id.Hex(), Quantity: qty}
}

func TestComputePricing(t *testing.T) {
	p := ComputePricing([]models.OrderItem{
		{Price: 99.99, Quantity: 2},
		{Price: 0.1, Quantity: 3},
	}, 150)
	assert.Equal(t, 200.28, p.Subtotal)
	assert.Equal(t, 150.0, p.Shipping)
	assert.Equal(t, 350.28, p.Total)
	assert.Zero(t, p.Tax)
	assert.Zero(t, p.Discount)
}

func TestValidatePricing(t *testing.T) {
	assert.NoError(t, ValidatePricing(models.Pricing{Subtotal: 100, Shipping: 50, Discount: 20, Total: 130}))

	err := ValidatePricing(models.Pricing{Subtotal: 100, Shipping: 50, Total: 100})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = ValidatePricing(models.Pricing{Subtotal: 100, Tax: 18, Total: 118})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateCODReservesStock(t *testing.T) {
	f := setup(t)
	id := f.product(t, "Kettle", 250, 5)

	order := f.place(t, models.PaymentMethodCOD, line(id, 2))

	assert.Equal(t, "AMB26030001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.Payment.Status)
	assert.True(t, order.StockReserved)
	assert.Equal(t, 3, f.stock(t, id))
	assert.Equal(t, "Asha", order.CustomerInfo.Name)
	assert.Equal(t, 500.0, order.Pricing.Total)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Kettle", order.Items[0].ProductInfo.Title)

	notes, total, err := f.st.Notifications.List(context.Background(), store.NotificationFilter{Type: models.NotificationNewOrder})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Contains(t, notes[0].Message, order.OrderNumber)
}

func TestCreateUPIDefersReservation(t *testing.T) {
	f := setup(t)
	id := f.product(t, "Lamp", 120, 4)

	order := f.place(t, models.PaymentMethodUPI, line(id, 3))

	assert.False(t, order.StockReserved)
	assert.Equal(t, 4, f.stock(t, id))
}

func TestCreatePriorityShipping(t *testing.T) {
	f := setup(t)
	id := f.product(t, "Mug", 250, 10)

	order, err := f.svc.Create(context.Background(), f.buyer.UserID, CreateInput{
		Items:    []ItemInput{line(id, 1)},
		Shipping: ShippingInput{Method: models.ShippingPriority, Address: "12 MG Road"},
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, order.Pricing.Subtotal)
	assert.Equal(t, 300.0, order.Pricing.Shipping)
	assert.Equal(t, 550.0, order.Pricing.Total)
	assert.Equal(t, models.PaymentMethodCOD, order.Payment.Method)
}

func TestCreateUsesPriceOverride(t *testing.T) {
	f := setup(t)
	id := f.product(t, "Rug", 900, 2)
	price := 750.0

	order, err := f.svc.Create(context.Background(), f.buyer.UserID, CreateInput{
		Items: []ItemInput{{ProductID: id.Hex(), Quantity: 2, Price: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, 750.0, order.Items[0].Price)
	assert.Equal(t, 1500.0, order.Pricing.Subtotal)
}

func TestCreateInsufficientStockHasNoSideEffects(t *testing.T) {
	f := setup(t)
	a := f.product(t, "A", 10, 5)
	b := f.product(t, "B", 10, 1)

	_, err := f.svc.Create(context.Background(), f.buyer.UserID, CreateInput{
		Items:   []ItemInput{line(a, 2), line(b, 3)},
		Payment: PaymentInput{Method: models.PaymentMethodBankTransfer},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	assert.Equal(t, 5, f.stock(t, a))
	assert.Equal(t, 1, f.stock(t, b))
	_, total, err := f.st.Orders.List(context.Background(), store.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 5)
	ctx := context.Background()

	cases := map[string]CreateInput{
		"no items":         {},
		"bad product id":   {Items: []ItemInput{{ProductID: "nope", Quantity: 1}}},
		"zero quantity":    {Items: []ItemInput{{ProductID: id.Hex(), Quantity: 0}}},
		"unknown payment":  {Items: []ItemInput{line(id, 1)}, Payment: PaymentInput{Method: "cheque"}},
		"unknown shipping": {Items: []ItemInput{line(id, 1)}, Shipping: ShippingInput{Method: "drone"}},
		"bad pricing": {
			Items:   []ItemInput{line(id, 1)},
			Pricing: &models.Pricing{Subtotal: 10, Total: 5},
		},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.buyer.UserID, in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}

	_, err := f.svc.Create(ctx, f.buyer.UserID, CreateInput{Items: []ItemInput{line(primitive.NewObjectID(), 1)}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOrderNumbersAreSequentialWithinMonth(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 10)

	first := f.place(t, models.PaymentMethodCOD, line(id, 1))
	second := f.place(t, models.PaymentMethodCOD, line(id, 1))
	assert.Equal(t, "AMB26030001", first.OrderNumber)
	assert.Equal(t, "AMB26030002", second.OrderNumber)

	f.svc.now = func() time.Time { return fixedNow.AddDate(0, 1, 0) }
	third := f.place(t, models.PaymentMethodCOD, line(id, 1))
	assert.Equal(t, "AMB26040001", third.OrderNumber)
}

func TestCancelRestoresReservedStock(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 2))
	require.Equal(t, 3, f.stock(t, id))

	cancelled, err := f.svc.Cancel(context.Background(), f.buyer, order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.False(t, cancelled.StockReserved)
	assert.Equal(t, 5, f.stock(t, id))
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, "Cancelled by customer", cancelled.StatusHistory[1].Note)
}

func TestCancelUnreservedOrderLeavesStock(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodUPI, line(id, 2))

	_, err := f.svc.Cancel(context.Background(), f.buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, id))
}

func TestCancelShippedIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 1))

	_, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: models.OrderStatusShipped})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.buyer, order.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stored, err := f.st.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, 4, f.stock(t, id))
}

func TestCancelByStrangerIsForbidden(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 1))

	stranger := models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	_, err := f.svc.Cancel(context.Background(), stranger, order.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Cancel(context.Background(), f.buyer, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConcurrentCancelsRestoreOnce(t *testing.T) {
	f := setup(t)
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 2))

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Cancel(context.Background(), f.buyer, order.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 5, f.stock(t, id))

	stored, err := f.st.Orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestUpdateStatusDeliveredSettlesPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 1))
	tracking := "TRK123"

	shipped, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{
		Status:         models.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.NotNil(t, shipped.Shipping.ShippedAt)
	assert.Equal(t, "TRK123", shipped.Shipping.TrackingNumber)

	delivered, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: models.OrderStatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, delivered.Shipping.DeliveredAt)
	assert.Equal(t, models.PaymentStatusCompleted, delivered.Payment.Status)
	require.NotNil(t, delivered.Payment.PaidAt)

	last := delivered.StatusHistory[len(delivered.StatusHistory)-1]
	require.NotNil(t, last.UpdatedBy)
	assert.Equal(t, f.admin.UserID, *last.UpdatedBy)

	notes, total, err := f.st.Notifications.List(ctx, store.NotificationFilter{Type: models.NotificationOrderStatusUpdate})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, f.buyer.UserID, *notes[0].UserID)
}

func TestUpdateStatusForcedAndCancelled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.product(t, "A", 10, 5)
	order := f.place(t, models.PaymentMethodCOD, line(id, 2))

	_, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: "lost"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	forced, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: models.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, forced.Status)

	cancelled, err := f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.False(t, cancelled.StockReserved)
	assert.Equal(t, 5, f.stock(t, id))

	_, err = f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, id), "second cancel must not release again")
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(models.OrderStatusPending, models.OrderStatusConfirmed))
	assert.True(t, CanTransition(models.OrderStatusShipped, models.OrderStatusDelivered))
	assert.False(t, CanTransition(models.OrderStatusShipped, models.OrderStatusCancelled))
	assert.False(t, CanTransition(models.OrderStatusDelivered, models.OrderStatusPending))
}

func TestReads(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.product(t, "A", 100, 50)
	first := f.place(t, models.PaymentMethodCOD, line(id, 1))
	f.place(t, models.PaymentMethodCOD, line(id, 2))

	orders, total, err := f.svc.ListForUser(ctx, f.buyer.UserID, "", store.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	stats, err := f.svc.StatsForUser(ctx, f.buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)

	got, err := f.svc.Get(ctx, f.admin, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "asha@example.com", got.Customer.Email)

	stranger := models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleUser}
	_, err = f.svc.Get(ctx, stranger, first.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	tracking, err := f.svc.Track(ctx, " amb26030001 ")
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, tracking.OrderNumber)
	assert.Len(t, tracking.StatusHistory, 1)

	_, err = f.svc.Track(ctx, "AMB99999999")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Track(ctx, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	listed, total, err := f.svc.AdminList(ctx, store.OrderFilter{Search: "asha@"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.NotNil(t, listed[0].Customer)
}

func TestTrackHidesAddressAndActors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.product(t, "Lamp", 120, 4)
	order, err := f.svc.Create(ctx, f.buyer.UserID, CreateInput{
		Items:    []ItemInput{line(id, 1)},
		Shipping: ShippingInput{Method: models.ShippingExpress, Address: "12 MG Road, Pune 411001"},
		Payment:  PaymentInput{Method: models.PaymentMethodCOD},
	})
	require.NoError(t, err)
	trackingNumber := "TRK-77"
	_, err = f.svc.UpdateStatus(ctx, f.admin.UserID, order.ID, StatusInput{
		Status:         models.OrderStatusShipped,
		TrackingNumber: &trackingNumber,
	})
	require.NoError(t, err)

	stored, err := f.st.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "12 MG Road, Pune 411001", stored.Shipping.Address)
	require.NotNil(t, stored.StatusHistory[len(stored.StatusHistory)-1].UpdatedBy)

	tracking, err := f.svc.Track(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, tracking.Status)
	assert.Equal(t, "TRK-77", tracking.Shipping.TrackingNumber)
	assert.NotNil(t, tracking.Shipping.ShippedAt)

	raw, err := json.Marshal(tracking)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "address")
	assert.NotContains(t, string(raw), "12 MG Road")
	assert.NotContains(t, string(raw), "updatedBy")
	assert.NotContains(t, string(raw), f.admin.UserID.Hex())
}
