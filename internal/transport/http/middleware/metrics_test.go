package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsHandlerRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("NewHTTPMetrics: %v", err)
	}

	router := gin.New()
	router.Use(metrics.Handler())
	router.POST("/activate", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activate", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	labels := prometheus.Labels{
		"method": http.MethodPost,
		"route":  "/activate",
		"status": "200",
	}

	if got := testutil.ToFloat64(metrics.Requests.With(labels)); got != 1 {
		t.Fatalf("expected request counter 1, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Fatalf("expected in-flight gauge back at 0, got %f", got)
	}
	if samples := testutil.CollectAndCount(metrics.Duration); samples == 0 {
		t.Fatalf("expected at least one duration sample")
	}
}

func TestHTTPMetricsHandlerLabelsUnmatchedRouteByPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("NewHTTPMetrics: %v", err)
	}

	router := gin.New()
	router.Use(metrics.Handler())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	labels := prometheus.Labels{
		"method": http.MethodGet,
		"route":  "/unknown",
		"status": "404",
	}

	if got := testutil.ToFloat64(metrics.Requests.With(labels)); got != 1 {
		t.Fatalf("expected unmatched route counted under raw path, got %f", got)
	}
}

func TestHTTPMetricsHandlerNilReceiver(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use((*HTTPMetrics)(nil).Handler())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
