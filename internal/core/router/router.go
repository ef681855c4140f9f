// Package router holds the /api handlers.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/landuse-api/internal/boundary"
	"github.com/mohammed-shakir/landuse-api/internal/core/config"
	"github.com/mohammed-shakir/landuse-api/internal/invalidation"
	"github.com/mohammed-shakir/landuse-api/internal/store"
)

const msgEndpointNotFound = "Endpoint not found"

// BoundaryReader returns one static boundary layer.
type BoundaryReader interface {
	Read(level string) (boundary.Layer, error)
}

// Publisher announces committed replacements to other instances.
type Publisher interface {
	PublishReplace(ctx context.Context, inserted int) (invalidation.Event, error)
}

type Deps struct {
	Store      store.Store
	Boundaries BoundaryReader
	// Publisher is optional.
	Publisher    Publisher
	Upload       config.UploadCfg
	DefaultLimit int
	Logger       *slog.Logger
}

type API struct {
	store        store.Store
	boundaries   BoundaryReader
	publisher    Publisher
	upload       config.UploadCfg
	defaultLimit int
	log          *slog.Logger
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.DefaultLimit <= 0 {
		d.DefaultLimit = 1000
	}
	return &API{
		store:        d.Store,
		boundaries:   d.Boundaries,
		publisher:    d.Publisher,
		upload:       d.Upload,
		defaultLimit: d.DefaultLimit,
		log:          d.Logger,
	}
}

// Routes returns the handler to mount under /api.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	for _, level := range boundary.Levels {
		r.Get("/"+level, a.handleBoundary(level))
	}
	r.Get("/land_use", a.handleLandUse)
	r.Get("/filter/{type}", a.handleFilter)
	r.Get("/area/{type}", a.handleArea)
	r.Post("/upload", a.handleUpload)

	notFound := func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgEndpointNotFound)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
	return r
}
