package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/quotes"
	"storefront/internal/reports"
	"storefront/internal/settings"
	"storefront/internal/store"
	"storefront/internal/users"
)

const serviceName = "storefront"

// Deps is everything the HTTP layer calls into.
type Deps struct {
	Config   config.Config
	Logger   *zap.Logger
	Health   store.Pinger
	Settings *settings.Holder
	Catalog  *catalog.Service
	Cart     *cart.Service
	Orders   *orders.Service
	Payments *payments.Service
	Quotes   *quotes.Service
	Users    *users.Service
	Reports  *reports.Service
	Inbox    *notify.Inbox
}

// NewRouter builds the engine with the middleware chain and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(d.Logger),
		otelgin.Middleware(serviceName),
		middleware.Logger(d.Logger),
		metrics.Middleware(),
		middleware.Timeout(d.Config.RequestTimeout),
		middleware.Settings(d.Settings),
	)
	Routes(r, d)
	return r
}

func Routes(r *gin.Engine, d Deps) {
	log := d.Logger
	userAuth := middleware.UserAuth(d.Config.JWTSecret, log)
	adminAuth := middleware.AdminAuth(d.Config.JWTSecret, log)

	r.GET("/health", Health(d.Health, log))
	r.GET("/metrics", metrics.Handler())

	auth := r.Group("/auth")
	auth.POST("/register", Register(d.Users, log))
	auth.POST("/login", Login(d.Users, log))
	auth.GET("/me", userAuth, GetMe(d.Users, log))
	auth.PUT("/me", userAuth, UpdateMe(d.Users, log))

	r.GET("/products", GetProducts(d.Catalog, log))
	r.GET("/products/:id", GetProduct(d.Catalog, log))
	r.GET("/categories", GetCategories(d.Catalog, log))
	r.GET("/categories/:id", GetCategory(d.Catalog, log))

	account := r.Group("/user", userAuth)
	account.GET("/addresses", GetAddresses(d.Users, log))
	account.POST("/addresses", AddAddress(d.Users, log))
	account.PUT("/addresses/:id", UpdateAddress(d.Users, log))
	account.DELETE("/addresses/:id", DeleteAddress(d.Users, log))
	account.PUT("/addresses/:id/default", SetDefaultAddress(d.Users, log))
	account.GET("/wishlist", GetWishlist(d.Users, log))
	account.POST("/wishlist", AddToWishlist(d.Users, log))
	account.DELETE("/wishlist/:productId", RemoveFromWishlist(d.Users, log))

	basket := r.Group("/cart", userAuth)
	basket.GET("", GetCart(d.Cart, log))
	basket.DELETE("", ClearCart(d.Cart, log))
	basket.POST("/items", AddCartItem(d.Cart, log))
	basket.PUT("/items/:itemId", UpdateCartItem(d.Cart, log))
	basket.DELETE("/items/:itemId", RemoveCartItem(d.Cart, log))

	r.GET("/orders/track/:orderNumber", TrackOrder(d.Orders, log))
	r.POST("/orders/payment/webhook", PaymentWebhook(d.Payments, log))
	orderRoutes := r.Group("/orders", userAuth)
	orderRoutes.POST("", CreateOrder(d.Orders, log))
	orderRoutes.GET("", GetMyOrders(d.Orders, log))
	orderRoutes.GET("/stats", GetOrderStats(d.Orders, log))
	orderRoutes.GET("/:id", GetOrder(d.Orders, log))
	orderRoutes.PUT("/:id/cancel", CancelOrder(d.Orders, log))

	quoteRoutes := r.Group("/quotations", userAuth)
	quoteRoutes.POST("", RequestQuotation(d.Quotes, log))
	quoteRoutes.GET("", GetMyQuotations(d.Quotes, log))
	quoteRoutes.GET("/:id", GetQuotation(d.Quotes, log))

	upiRoutes := r.Group("/upi-payments", userAuth)
	upiRoutes.POST("/verify", VerifyUPIPayment(d.Payments, log))
	upiRoutes.GET("/generate/:orderId", GenerateUPIRequest(d.Payments, log))
	upiRoutes.POST("/status", CheckUPIStatus(d.Payments, log))
	upiRoutes.POST("/collect-qr", CollectUPIQR(d.Payments, log))

	admin := r.Group("/admin", adminAuth)
	admin.GET("/dashboard", GetDashboard(d.Reports, log))
	admin.GET("/reports/sales", GetSalesReport(d.Reports, log))
	admin.GET("/reports/categories", GetCategoryReport(d.Reports, log))
	admin.GET("/reports/products", GetProductReport(d.Reports, log))

	admin.GET("/orders", AdminGetOrders(d.Orders, log))
	admin.GET("/orders/:id", AdminGetOrder(d.Orders, log))
	admin.PUT("/orders/:id/status", UpdateOrderStatus(d.Orders, log))

	admin.GET("/products", AdminGetProducts(d.Catalog, log))
	admin.GET("/products/:id", AdminGetProduct(d.Catalog, log))
	admin.POST("/products", CreateProduct(d.Catalog, log))
	admin.PUT("/products/:id", UpdateProduct(d.Catalog, log))
	admin.DELETE("/products/:id", DeleteProduct(d.Catalog, log))
	admin.PATCH("/products/bulk-status", BulkProductStatus(d.Catalog, log))

	admin.GET("/categories", AdminGetCategories(d.Catalog, log))
	admin.POST("/categories", CreateCategory(d.Catalog, log))
	admin.PUT("/categories/:id", UpdateCategory(d.Catalog, log))
	admin.DELETE("/categories/:id", DeleteCategory(d.Catalog, log))

	admin.GET("/quotations", AdminGetQuotations(d.Quotes, log))
	admin.GET("/quotations/:id", GetQuotation(d.Quotes, log))
	admin.PUT("/quotations/:id/respond", RespondToQuotation(d.Quotes, log))

	admin.GET("/users", AdminGetUsers(d.Users, log))
	admin.PUT("/users/:id/role", UpdateUserRole(d.Users, log))
	admin.DELETE("/users/:id", DeleteUser(d.Users, log))
	admin.GET("/customers", AdminGetCustomers(d.Users, log))
	admin.GET("/customers/:id", AdminGetCustomer(d.Users, log))
	admin.PUT("/customers/:id/approve", ApproveCustomer(d.Users, log))
	admin.PUT("/customers/:id/reject", RejectCustomer(d.Users, log))

	admin.GET("/notifications", GetNotifications(d.Inbox, log))
	admin.GET("/notifications/stats", GetNotificationStats(d.Inbox, log))
	admin.PUT("/notifications/read-all", MarkAllNotificationsRead(d.Inbox, log))
	admin.PUT("/notifications/:id/read", MarkNotificationRead(d.Inbox, log))
	admin.DELETE("/notifications/:id", DeleteNotification(d.Inbox, log))

	admin.GET("/settings", GetSettings(d.Settings))
	admin.PUT("/settings", UpdateSettings(d.Settings, log))
}
