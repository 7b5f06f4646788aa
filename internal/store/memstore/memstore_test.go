package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

func TestWithTxRollbackKeepsOutsideWrites(t *testing.T) {
	db := New()
	st := db.Store()
	ctx := context.Background()

	product := &models.Product{Title: "Mixer", Stock: 10, Status: models.ProductStatusActive}
	require.NoError(t, st.Products.Create(ctx, product))

	boom := errors.New("boom")
	outside := &models.User{Name: "Outside", Email: "outside@example.com", Role: models.RoleUser}
	inserted := make(chan error)

	err := st.Tx.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := st.Products.AdjustStock(txCtx, product.ID, -4); err != nil {
			return err
		}
		if _, err := st.Counters.Next(txCtx, "orders"); err != nil {
			return err
		}
		// A request that is not part of the transaction writes meanwhile.
		go func() { inserted <- st.Users.Create(ctx, outside) }()
		require.NoError(t, <-inserted)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.Users.Get(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outside", got.Name)

	p, err := st.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	next, err := st.Counters.Next(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestWithTxRollbackRemovesInsertsAndRestoresDeletes(t *testing.T) {
	db := New()
	st := db.Store()
	ctx := context.Background()

	category := &models.Category{Name: "Kitchen"}
	require.NoError(t, st.Categories.Create(ctx, category))

	var created models.Order
	err := st.Tx.WithTx(ctx, func(txCtx context.Context) error {
		created = models.Order{OrderNumber: "AMB26010001"}
		if err := st.Orders.Create(txCtx, &created); err != nil {
			return err
		}
		if err := st.Categories.Delete(txCtx, category.ID); err != nil {
			return err
		}
		// Nested calls join the running transaction.
		return st.Tx.WithTx(txCtx, func(inner context.Context) error {
			return st.Settings.Save(inner, &models.Settings{Currency: "INR"})
		})
	})
	require.NoError(t, err)
	_, err = st.Categories.Get(ctx, category.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	restored := &models.Category{Name: "Garden"}
	require.NoError(t, st.Categories.Create(ctx, restored))

	err = st.Tx.WithTx(ctx, func(txCtx context.Context) error {
		second := models.Order{OrderNumber: "AMB26010002"}
		if err := st.Orders.Create(txCtx, &second); err != nil {
			return err
		}
		if err := st.Categories.Delete(txCtx, restored.ID); err != nil {
			return err
		}
		if err := st.Settings.Save(txCtx, &models.Settings{Currency: "USD"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = st.Orders.GetByNumber(ctx, "AMB26010002")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Orders.GetByNumber(ctx, created.OrderNumber)
	assert.NoError(t, err)
	_, err = st.Categories.Get(ctx, restored.ID)
	assert.NoError(t, err)
	settings, err := st.Settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INR", settings.Currency)
}

func TestSaveAddressesChecksVersion(t *testing.T) {
	st := New().Store()
	ctx := context.Background()
	u := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleUser}
	require.NoError(t, st.Users.Create(ctx, u))

	first := []models.Address{{ID: "a1", Line1: "1 Main Rd", IsDefault: true}}
	require.NoError(t, st.Users.SaveAddresses(ctx, u.ID, 0, first))

	stale := []models.Address{{ID: "a2", Line1: "2 Side St", IsDefault: true}}
	err := st.Users.SaveAddresses(ctx, u.ID, 0, stale)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	got, err := st.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "a1", got.Addresses[0].ID)
	assert.Equal(t, int64(1), got.Version)

	err = st.Users.SaveAddresses(ctx, primitive.NewObjectID(), 0, stale)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuotationRespondChecksVersion(t *testing.T) {
	st := New().Store()
	ctx := context.Background()
	q := &models.Quotation{Quantity: 100, Status: models.QuoteStatusPending}
	require.NoError(t, st.Quotations.Create(ctx, q))

	resp := models.QuotationResponse{Status: models.QuoteStatusRejected, RespondedBy: primitive.NewObjectID()}
	updated, err := st.Quotations.Respond(ctx, q.ID, 0, resp)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusRejected, updated.Status)
	assert.Equal(t, int64(1), updated.Version)

	_, err = st.Quotations.Respond(ctx, q.ID, 0, resp)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
}
