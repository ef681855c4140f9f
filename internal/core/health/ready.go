package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 2 * time.Second

// Readiness reports ready when db answers a ping and rr (if any) holds its
// consumer assignment.
func Readiness(db Pinger, rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status     string  `json:"status"`
			DB         string  `json:"db"`
			Partitions []int32 `json:"partitions,omitempty"`
			Error      string  `json:"error,omitempty"`
		}
		out := resp{Status: "ready", DB: "ok"}
		ready := true

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			err := db.Ping(ctx)
			cancel()
			if err != nil {
				ready = false
				out.DB = "down"
				out.Error = err.Error()
			}
		}
		if rr != nil {
			ok, parts := rr.Readiness()
			if !ok {
				ready = false
			}
			out.Partitions = parts
		}

		if !ready {
			out.Status = "not_ready"
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
