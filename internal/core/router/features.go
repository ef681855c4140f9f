package router

import (
	"net/http"

	"github.com/mohammed-shakir/landuse-api/internal/core/model"
)

func (a *API) handleLandUse(w http.ResponseWriter, r *http.Request) {
	features, err := a.store.ListFeatures(r.Context(), parsePage(r, a.defaultLimit))
	if err != nil {
		a.log.ErrorContext(r.Context(), "list features failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.NewFeatureCollection(features))
}

func (a *API) handleFilter(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "type")
	features, err := a.store.FilterFeatures(r.Context(), category, parsePage(r, a.defaultLimit))
	if err != nil {
		a.log.ErrorContext(r.Context(), "filter features failed", "type", category, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(features) == 0 {
		writeError(w, http.StatusNotFound, notFoundForType(category))
		return
	}
	writeJSON(w, http.StatusOK, model.NewFeatureCollection(features))
}

func (a *API) handleArea(w http.ResponseWriter, r *http.Request) {
	category := pathParam(r, "type")
	stats, err := a.store.AreaByType(r.Context(), category)
	if err != nil {
		a.log.ErrorContext(r.Context(), "area query failed", "type", category, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stats.FeatureCount == 0 {
		writeError(w, http.StatusNotFound, notFoundForType(category))
		return
	}
	stats.Type = category
	writeJSON(w, http.StatusOK, stats)
}

func notFoundForType(category string) string {
	return "No land use features found for type: " + category
}
