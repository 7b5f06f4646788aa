package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
)

func setup(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := memstore.New().Store()
	return NewService(st.Carts, st.Products, zaptest.NewLogger(t)), st
}

func addProduct(t *testing.T, st *store.Store, price, discount float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Title: "P", Price: price, DiscountPrice: discount, Stock: stock, Status: models.ProductStatusActive}
	require.NoError(t, st.Products.Create(context.Background(), p))
	return p
}

func TestAddItemSnapshotsEffectivePrice(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()
	p := addProduct(t, st, 100, 80, 10)

	c, err := svc.AddItem(ctx, user, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 80.0, c.Items[0].Price)
	assert.NotNil(t, c.Items[0].Product)

	c, err = svc.AddItem(ctx, user, p.ID, 3)
	require.NoError(t, err)
	require.Len(t, c.Items, 1, "same product merges into one line")
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, 320.0, c.Total)
	assert.Equal(t, 4, c.ItemCount)
}

func TestAddItemChecksStock(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()
	p := addProduct(t, st, 10, 0, 3)

	_, err := svc.AddItem(ctx, user, p.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, p.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	_, err = svc.AddItem(ctx, user, primitive.NewObjectID(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConcurrentAddsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()
	p := addProduct(t, st, 10, 0, 3)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.AddItem(ctx, user, p.ID, 2)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind := apperr.KindOf(err)
		assert.True(t, kind == apperr.KindConflict || kind == apperr.KindInsufficientStock, "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)

	c, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestUpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()
	a := addProduct(t, st, 10, 0, 5)
	b := addProduct(t, st, 20, 0, 5)

	_, err := svc.AddItem(ctx, user, a.ID, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, user, b.ID, 1)
	require.NoError(t, err)
	itemA := c.Items[0].ID

	_, err = svc.UpdateItem(ctx, user, itemA, 6)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	c, err = svc.UpdateItem(ctx, user, itemA, 5)
	require.NoError(t, err)
	assert.Equal(t, 70.0, c.Total)

	_, err = svc.UpdateItem(ctx, user, itemA, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateItem(ctx, user, primitive.NewObjectID(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	c, err = svc.RemoveItem(ctx, user, itemA)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, b.ID, c.Items[0].ProductID)

	c, err = svc.Clear(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total)
}

func TestGetPrunesDeletedProducts(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()
	a := addProduct(t, st, 10, 0, 5)
	b := addProduct(t, st, 20, 0, 5)

	_, err := svc.AddItem(ctx, user, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, st.Products.Delete(ctx, a.ID))

	c, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	stored, err := st.Carts.GetByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1, "pruning is persisted")
}

func TestGetCreatesCartLazily(t *testing.T) {
	ctx := context.Background()
	svc, st := setup(t)
	user := primitive.NewObjectID()

	c, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = st.Carts.GetByUser(ctx, user)
	assert.NoError(t, err)
}
