package http

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewServer wraps handler with OpenTelemetry instrumentation. Listening and
// shutdown are left to the caller.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr: addr,
		Handler: otelhttp.NewHandler(handler, "catalog",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
