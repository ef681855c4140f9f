package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	ObserveHTTP("GET", "/api/land_use", 200, 0.001)
	ObserveDBOp("list_features", nil, 0.002)
	ObserveDBOp("replace_all", errors.New("boom"), 0.5)
	ObserveUpload("ok", 2, 1)
	IncCacheMiss()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"http_requests_total",
		"db_op_duration_seconds",
		`landuse_upload_features_total{disposition="skipped"} 1`,
		`cache_results_total{outcome="miss"}`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics payload missing %q; got:\n%s", name, body)
		}
	}
}
