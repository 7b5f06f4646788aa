package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/apperr"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/settings"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
)

func setup(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := memstore.New().Store()
	notifier := notify.NewNotifier(zaptest.NewLogger(t), notify.NewStoreSink(st.Notifications))
	return NewService(st.Products, nil, notifier, zaptest.NewLogger(t)), st
}

func product(t *testing.T, st *store.Store, title string, stock int) primitive.ObjectID {
	t.Helper()
	p := &models.Product{Title: title, Price: 10, Stock: stock, Status: models.ProductStatusActive}
	require.NoError(t, st.Products.Create(context.Background(), p))
	return p.ID
}

func stockOf(t *testing.T, st *store.Store, id primitive.ObjectID) int {
	t.Helper()
	p, err := st.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserveAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	a := product(t, st, "A", 5)
	b := product(t, st, "B", 1)

	_, err := svc.Reserve(ctx, []Line{
		{ProductID: a, Title: "A", Quantity: 3},
		{ProductID: b, Title: "B", Quantity: 2},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.Data["available"])
	assert.Equal(t, 2, appErr.Data["requested"])

	assert.Equal(t, 5, stockOf(t, st, a), "first line must be given back")
	assert.Equal(t, 1, stockOf(t, st, b))
}

func TestReserveMissingProduct(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	a := product(t, st, "A", 5)

	_, err := svc.Reserve(ctx, []Line{
		{ProductID: a, Quantity: 1},
		{ProductID: primitive.NewObjectID(), Quantity: 1},
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 5, stockOf(t, st, a))
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	id := product(t, st, "A", 3)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(ctx, []Line{{ProductID: id, Quantity: 1}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, stockOf(t, st, id))
}

func TestReleaseSkipsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	a := product(t, st, "A", 0)

	levels, err := svc.Release(ctx, []Line{
		{ProductID: a, Quantity: 2},
		{ProductID: primitive.NewObjectID(), Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 2, stockOf(t, st, a))
}

func TestCheckLowStockUsesThreshold(t *testing.T) {
	svc, st := setup(t)
	s := settings.Defaults(config.Config{})
	s.LowStockThreshold = 4
	ctx := settings.WithContext(context.Background(), s)

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	svc.Settle(ctx, []Level{
		{ProductID: a, Title: "A", Stock: 6},
		{ProductID: a, Title: "A", Stock: 4},
		{ProductID: b, Title: "B", Stock: 9},
	})

	items, total, err := st.Notifications.List(ctx, store.NotificationFilter{Type: models.NotificationLowStock})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "A is running low on stock (only 4 units left)", items[0].Message)
	assert.Equal(t, models.PriorityHigh, items[0].Priority)
}
