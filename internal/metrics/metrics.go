package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders placed, by payment method",
		},
		[]string{"payment_method"},
	)

	paymentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Payment updates applied, by source and resulting status",
		},
		[]string{"source", "status"},
	)

	stockLowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_low_total",
			Help: "Low-stock alerts raised",
		},
	)

	orderStatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Order status writes, by new status",
		},
		[]string{"status"},
	)

	quotationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_events_total",
			Help: "Quotation requests and admin responses, by resulting status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ordersCreatedTotal,
		paymentsProcessedTotal,
		stockLowTotal,
		orderStatusChangesTotal,
		quotationEventsTotal,
	)
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func OrderCreated(paymentMethod string) {
	ordersCreatedTotal.WithLabelValues(paymentMethod).Inc()
}

func PaymentProcessed(source, status string) {
	paymentsProcessedTotal.WithLabelValues(source, status).Inc()
}

func StockLow() {
	stockLowTotal.Inc()
}

func OrderStatusChanged(status string) {
	orderStatusChangesTotal.WithLabelValues(status).Inc()
}

func QuotationEvent(status string) {
	quotationEventsTotal.WithLabelValues(status).Inc()
}
