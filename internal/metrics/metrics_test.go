package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	assert.Equal(t, 2.0, after-before)
}

func TestBusinessCounters(t *testing.T) {
	before := testutil.ToFloat64(ordersCreatedTotal.WithLabelValues("cod"))
	OrderCreated("cod")
	assert.Equal(t, 1.0, testutil.ToFloat64(ordersCreatedTotal.WithLabelValues("cod"))-before)

	lowBefore := testutil.ToFloat64(stockLowTotal)
	StockLow()
	assert.Equal(t, 1.0, testutil.ToFloat64(stockLowTotal)-lowBefore)
}

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	PaymentProcessed("webhook", "completed")
	OrderStatusChanged("shipped")

	r := gin.New()
	r.GET("/metrics", Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "payments_processed_total"))
	assert.True(t, strings.Contains(body, "order_status_changes_total"))
}
