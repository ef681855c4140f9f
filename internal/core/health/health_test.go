package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type reporter struct {
	ok    bool
	parts []int32
}

func (r reporter) Readiness() (bool, []int32) { return r.ok, r.parts }

func TestReadiness(t *testing.T) {
	cases := []struct {
		name   string
		db     Pinger
		rr     ReadinessReporter
		status int
		want   string
	}{
		{"all ok", pinger{}, reporter{ok: true, parts: []int32{0}}, http.StatusOK, `"status":"ready"`},
		{"no runner", pinger{}, nil, http.StatusOK, `"db":"ok"`},
		{"db down", pinger{err: errors.New("dial tcp: refused")}, nil, http.StatusServiceUnavailable, `"db":"down"`},
		{"unassigned", pinger{}, reporter{}, http.StatusServiceUnavailable, `"status":"not_ready"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Readiness(tc.db, tc.rr)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d", rr.Code, tc.status)
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Fatalf("body=%s want %s", rr.Body.String(), tc.want)
			}
		})
	}
}
