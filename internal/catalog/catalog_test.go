package catalog

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

type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]models.Product
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[string]models.Product{}}
}

func (c *recordingCache) GetProduct(_ context.Context, id string) (*models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *recordingCache) SetProduct(_ context.Context, p *models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID.Hex()] = *p
}

func (c *recordingCache) InvalidateProduct(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

func newTestService(t *testing.T) (*Service, *store.Store, *recordingCache) {
	t.Helper()
	st := memstore.New().Store()
	rc := newRecordingCache()
	return NewService(st.Products, st.Categories, rc, zaptest.NewLogger(t)), st, rc
}

func mustCategory(t *testing.T, svc *Service, name string) *models.Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tools := mustCategory(t, svc, "Tools")
	assert.True(t, tools.IsActive)

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "tools"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	inactive := false
	hidden, err := svc.CreateCategory(ctx, CategoryInput{Name: "Hidden", IsActive: &inactive})
	require.NoError(t, err)

	public, err := svc.ListCategories(ctx, store.CategoryFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Tools", public[0].Name)

	_, err = svc.GetCategory(ctx, hidden.ID, true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.UpdateCategory(ctx, hidden.ID, CategoryInput{Name: "Tools"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.CreateProduct(ctx, ProductInput{Title: "Drill", Description: "d", CategoryID: tools.ID.Hex(), Price: 10, Stock: 1})
	require.NoError(t, err)
	assert.True(t, apperr.Is(svc.DeleteCategory(ctx, tools.ID), apperr.KindConflict))
	assert.NoError(t, svc.DeleteCategory(ctx, hidden.ID))
}

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	category := mustCategory(t, svc, "Tools")

	tests := []struct {
		name string
		in   ProductInput
		kind apperr.Kind
	}{
		{"missing title", ProductInput{Description: "d", CategoryID: category.ID.Hex(), Price: 10}, apperr.KindValidation},
		{"discount above price", ProductInput{Title: "t", Description: "d", CategoryID: category.ID.Hex(), Price: 10, DiscountPrice: 12}, apperr.KindValidation},
		{"discount equal price", ProductInput{Title: "t", Description: "d", CategoryID: category.ID.Hex(), Price: 10, DiscountPrice: 10}, apperr.KindValidation},
		{"negative stock", ProductInput{Title: "t", Description: "d", CategoryID: category.ID.Hex(), Price: 10, Stock: -1}, apperr.KindValidation},
		{"bad status", ProductInput{Title: "t", Description: "d", CategoryID: category.ID.Hex(), Price: 10, Status: "archived"}, apperr.KindValidation},
		{"unknown category", ProductInput{Title: "t", Description: "d", CategoryID: primitive.NewObjectID().Hex(), Price: 10}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestProductDerivedFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	category := mustCategory(t, svc, "Tools")

	p, err := svc.CreateProduct(ctx, ProductInput{
		Title:         "Drill",
		Description:   "Cordless",
		CategoryID:    category.ID.Hex(),
		Price:         200,
		DiscountPrice: 150,
		Stock:         4,
		Images:        models.StringList{" a.jpg ", "a.jpg", ""},
	})
	require.NoError(t, err)
	assert.True(t, p.IsOnSale)
	assert.Equal(t, 25, p.DiscountPercentage)
	assert.Equal(t, 150.0, p.FinalPrice)
	assert.Equal(t, models.StockStatusLow, p.StockStatus)
	assert.Equal(t, models.StringList{"a.jpg"}, p.Images)
	assert.Equal(t, 1, p.MinOrderQuantity)
}

func TestUpdateProductAndCache(t *testing.T) {
	ctx := context.Background()
	svc, _, rc := newTestService(t)
	category := mustCategory(t, svc, "Tools")
	p, err := svc.CreateProduct(ctx, ProductInput{Title: "Saw", Description: "d", CategoryID: category.ID.Hex(), Price: 100, DiscountPrice: 80, Stock: 20})
	require.NoError(t, err)

	_, err = svc.GetProduct(ctx, p.ID, true)
	require.NoError(t, err)
	_, cached := rc.GetProduct(ctx, p.ID.Hex())
	assert.True(t, cached)

	lower := 70.0
	_, err = svc.UpdateProduct(ctx, p.ID, ProductUpdate{Price: &lower})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "discount 80 must stay below the new price")

	noDiscount := 0.0
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductUpdate{Price: &lower, DiscountPrice: &noDiscount})
	require.NoError(t, err)
	assert.False(t, updated.IsOnSale)
	assert.Equal(t, 70.0, updated.FinalPrice)
	assert.Contains(t, rc.invalidated, p.ID.Hex())

	draft := models.ProductStatusDraft
	_, err = svc.UpdateProduct(ctx, p.ID, ProductUpdate{Status: &draft})
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, p.ID, true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = svc.GetProduct(ctx, p.ID, false)
	assert.NoError(t, err)
}

func TestPublicProductsFilters(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	tools := mustCategory(t, svc, "Tools")
	garden := mustCategory(t, svc, "Garden")

	for _, in := range []ProductInput{
		{Title: "Hammer", Description: "steel", CategoryID: tools.ID.Hex(), Price: 50, Stock: 0},
		{Title: "Wrench", Description: "chrome", CategoryID: tools.ID.Hex(), Price: 80, Stock: 30, Featured: true},
		{Title: "Hose", Description: "green", CategoryID: garden.ID.Hex(), Price: 120, Stock: 5},
		{Title: "Rake", Description: "draft item", CategoryID: garden.ID.Hex(), Price: 20, Stock: 5, Status: models.ProductStatusDraft},
	} {
		_, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	all, total, err := svc.PublicProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	toolsID := tools.ID
	byCategory, _, err := svc.PublicProducts(ctx, store.ProductFilter{CategoryID: &toolsID, Sort: store.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "Wrench", byCategory[0].Title)

	minPrice := 60.0
	_, total, err = svc.PublicProducts(ctx, store.ProductFilter{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	out, _, err := svc.PublicProducts(ctx, store.ProductFilter{StockStatus: models.StockStatusOut})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hammer", out[0].Title)

	found, _, err := svc.PublicProducts(ctx, store.ProductFilter{Search: "GREEN"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Hose", found[0].Title)

	_, total, err = svc.AdminProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestBulkStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, rc := newTestService(t)
	category := mustCategory(t, svc, "Tools")
	p, err := svc.CreateProduct(ctx, ProductInput{Title: "Saw", Description: "d", CategoryID: category.ID.Hex(), Price: 100, Stock: 2})
	require.NoError(t, err)

	n, err := svc.BulkStatus(ctx, []primitive.ObjectID{p.ID, primitive.NewObjectID()}, models.ProductStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, rc.invalidated, p.ID.Hex())

	_, err = svc.BulkStatus(ctx, []primitive.ObjectID{p.ID}, "gone")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
