package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug")
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger("loud")
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestMetricsCountsOperations(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("create", nil)
	m.ObserveOperation("create", nil)
	m.ObserveOperation("create", errors.New("boom"))

	require.Equal(t, 2.0, m.OperationCount("create", "ok"))
	require.Equal(t, 1.0, m.OperationCount("create", "error"))
	require.Zero(t, m.OperationCount("delete", "ok"))
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("list", nil)
	m.ObserveRequest(http.MethodGet, "/products", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `catalog_product_operations_total{operation="list",result="ok"} 1`)
	require.Contains(t, string(body), `catalog_http_requests_total{code="200",method="GET",route="/products"} 1`)
}

func TestNewTracerProviderWithoutEndpoint(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "", "catalog-test")
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}
