package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
)

// parsePage reads limit and offset. Missing, non-numeric or out of range
// values fall back to defaultLimit and 0. Limit has no upper bound.
func parsePage(r *http.Request, defaultLimit int) model.Page {
	q := r.URL.Query()
	p := model.Page{Limit: defaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil && n > 0 {
		p.Limit = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil && n >= 0 {
		p.Offset = n
	}
	return p
}
