package router

import (
	"errors"
	"net/http"

	"github.com/mohammed-shakir/landuse-api/internal/boundary"
)

func (a *API) handleBoundary(level string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := a.boundaries.Read(level)
		switch {
		case errors.Is(err, boundary.ErrNotFound):
			writeError(w, http.StatusNotFound, level+" boundary data not found")
			return
		case err != nil:
			a.log.ErrorContext(r.Context(), "boundary read failed", "level", level, "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("ETag", l.ETag)
		w.Header().Set("Cache-Control", "no-cache")
		if match := r.Header.Get("If-None-Match"); match != "" && match == l.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(l.Data)
	}
}
