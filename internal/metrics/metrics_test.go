package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProvider_RegistersStandardCollectors_AndBuildInfo(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "r", Branch: "b", BuildDate: "now"}})

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "landuse_test_gauge", Help: "smoke"})
	p.Register(g)
	g.Set(42)

	if n := testutil.CollectAndCount(g); n == 0 {
		t.Fatalf("expected at least 1 sample from landuse_test_gauge, got %d", n)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()

	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go_goroutines in payload; got:\n%s", body)
	}
	if !strings.Contains(body, `app_build_info{branch="b",build_date="now",revision="r",version="test"} 1`) {
		t.Fatalf("expected app_build_info in payload; got:\n%s", body)
	}
	if !strings.Contains(body, "landuse_test_gauge 42") {
		t.Fatalf("expected registered gauge in payload; got:\n%s", body)
	}
}

func TestProvider_DefaultsVersion(t *testing.T) {
	p := Init(Config{})
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `version="dev"`) {
		t.Fatalf("expected dev version label; got:\n%s", rr.Body.String())
	}
}
