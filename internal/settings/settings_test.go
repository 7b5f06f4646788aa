package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront/internal/config"
	"storefront/internal/store/memstore"
)

func TestLoadSeedsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	st := memstore.New().Store()
	cfg := config.Config{MerchantUPI: "shop@upi", MerchantName: "Shop"}

	h, err := Load(ctx, st.Settings, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 150.0, h.Current().ShippingRates.Express)
	assert.Equal(t, "shop@upi", h.Current().MerchantUPI)

	stored, err := st.Settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.LowStockThreshold)

	stored.LowStockThreshold = 3
	require.NoError(t, st.Settings.Save(ctx, stored))

	h2, err := Load(ctx, st.Settings, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, h2.Current().LowStockThreshold)
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	ctx := context.Background()
	st := memstore.New().Store()
	h := NewHolder(Defaults(config.Config{}), st.Settings, zaptest.NewLogger(t))

	before := h.Current()
	next := before
	next.ShippingRates.Priority = 500

	saved, err := h.Replace(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, 500.0, saved.ShippingRates.Priority)
	assert.Equal(t, 500.0, h.Current().ShippingRates.Priority)
	assert.Equal(t, 300.0, before.ShippingRates.Priority)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, 300.0, FromContext(context.Background()).ShippingFee("priority"))

	s := Defaults(config.Config{})
	s.ShippingRates.Express = 99
	ctx := WithContext(context.Background(), s)
	assert.Equal(t, 99.0, FromContext(ctx).ShippingFee("express"))
	assert.Equal(t, 0.0, FromContext(ctx).ShippingFee("unknown"))
}
