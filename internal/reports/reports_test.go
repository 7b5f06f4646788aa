package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := memstore.New().Store()
	svc := NewService(st, zaptest.NewLogger(t))
	svc.now = func() time.Time { return now }
	return svc, st
}

type seed struct {
	at       time.Time
	status   string
	paid     bool
	product  primitive.ObjectID
	title    string
	quantity int
	price    float64
}

func insert(t *testing.T, st *store.Store, s seed) {
	t.Helper()
	payment := models.PaymentStatusPending
	if s.paid {
		payment = models.PaymentStatusCompleted
	}
	status := s.status
	if status == "" {
		status = models.OrderStatusConfirmed
	}
	total := s.price * float64(s.quantity)
	require.NoError(t, st.Orders.Create(context.Background(), &models.Order{
		OrderNumber: primitive.NewObjectID().Hex(),
		CustomerID:  primitive.NewObjectID(),
		Items: []models.OrderItem{{
			ProductID:   s.product,
			ProductInfo: models.ProductSnapshot{Title: s.title, Price: s.price},
			Quantity:    s.quantity,
			Price:       s.price,
		}},
		Pricing:   models.Pricing{Subtotal: total, Total: total},
		Payment:   models.Payment{Method: models.PaymentMethodCOD, Status: payment},
		Status:    status,
		CreatedAt: s.at,
		UpdatedAt: s.at,
	}))
}

func TestGrowth(t *testing.T) {
	assert.Equal(t, 100.0, Growth(500, 0))
	assert.Equal(t, 100.0, Growth(0, 0))
	assert.Equal(t, 50.0, Growth(150, 100))
	assert.Equal(t, -25.0, Growth(75, 100))
	assert.Equal(t, 33.33, Growth(4, 3))
}

func TestDashboard(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	category := &models.Category{Name: "Sarees", IsActive: true}
	require.NoError(t, st.Categories.Create(ctx, category))
	saree := &models.Product{Title: "Saree", Price: 1000, Stock: 5, Status: models.ProductStatusActive, CategoryID: category.ID}
	require.NoError(t, st.Products.Create(ctx, saree))
	draft := &models.Product{Title: "Draft", Price: 10, Status: models.ProductStatusDraft}
	require.NoError(t, st.Products.Create(ctx, draft))
	require.NoError(t, st.Users.Create(ctx, &models.User{Email: "a@example.com", Role: models.RoleUser}))
	require.NoError(t, st.Users.Create(ctx, &models.User{Email: "admin@example.com", Role: models.RoleAdmin}))

	insert(t, st, seed{at: now.AddDate(0, 0, -2), paid: true, product: saree.ID, title: "Saree", quantity: 2, price: 1000})
	insert(t, st, seed{at: now.AddDate(0, 0, -1), paid: false, product: saree.ID, title: "Saree", quantity: 1, price: 1000})
	insert(t, st, seed{at: now, status: models.OrderStatusCancelled, product: saree.ID, title: "Saree", quantity: 9, price: 1000})
	insert(t, st, seed{at: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC), paid: true, product: saree.ID, title: "Saree", quantity: 1, price: 1000})

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, d.Revenue.Current)
	assert.Equal(t, 1000.0, d.Revenue.Previous)
	assert.Equal(t, 100.0, d.Revenue.Growth)
	assert.Equal(t, 3.0, d.Orders.Current)
	assert.Equal(t, 1.0, d.Orders.Previous)
	assert.Equal(t, 200.0, d.Orders.Growth)

	assert.Equal(t, int64(1), d.ActiveProducts)
	assert.Equal(t, int64(1), d.Customers)
	assert.Len(t, d.RecentOrders, 4)

	require.Len(t, d.TopProducts, 1)
	assert.Equal(t, int64(3), d.TopProducts[0].Quantity, "cancelled orders are excluded")

	require.Len(t, d.DailySales, DefaultDays)
	assert.Equal(t, "2026-03-15", d.DailySales[DefaultDays-1].Date)
	assert.Equal(t, "2026-03-13", d.DailySales[DefaultDays-3].Date)
	assert.Equal(t, 2000.0, d.DailySales[DefaultDays-3].Revenue)

	require.Len(t, d.Categories, 1)
	assert.Equal(t, "Sarees", d.Categories[0].Name)
	assert.Equal(t, 3000.0, d.Categories[0].Revenue)
}

func TestStandaloneReports(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	insert(t, st, seed{at: now.AddDate(0, 0, -3), paid: true, product: a, title: "A", quantity: 1, price: 100})
	insert(t, st, seed{at: now.AddDate(0, 0, -20), paid: true, product: b, title: "B", quantity: 4, price: 50})

	sales, err := svc.DailySales(ctx, 7)
	require.NoError(t, err)
	require.Len(t, sales, 7)
	assert.Equal(t, "2026-03-09", sales[0].Date)
	assert.Equal(t, 100.0, sales[3].Revenue)

	products, err := svc.Products(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A", products[0].Title)

	products, err = svc.Products(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "B", products[0].Title)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
