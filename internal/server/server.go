// Package server exposes the selection pipeline, preset catalogs and
// neighbor lookups over HTTP for the browser client.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/randoscope/randoscope/internal/monitoring"
	"github.com/randoscope/randoscope/internal/pipeline"
	"github.com/randoscope/randoscope/internal/types"
)

// SelectionRunner runs selections, implemented by pipeline.Pipeline.
type SelectionRunner interface {
	Select(ctx context.Context, area types.AreaSelection, filter types.CategoryFilter, zone *types.Zone) (pipeline.Snapshot, error)
}

// CatalogSource serves the preset catalogs, implemented by presets.Catalog.
type CatalogSource interface {
	Parks(ctx context.Context) ([]types.Preset, error)
	Regions(ctx context.Context) ([]types.Preset, error)
	Departements(ctx context.Context) ([]types.Preset, error)
}

// CommuneSearcher searches communes by name, implemented by
// presets.CommuneIndex.
type CommuneSearcher interface {
	Search(ctx context.Context, query string) ([]types.Commune, error)
}

// NeighborLoader resolves neighbor zones, implemented by neighbors.Loader.
type NeighborLoader interface {
	Load(ctx context.Context, zone *types.Zone, visible types.BoundingBox) ([]types.Neighbor, error)
}

// BoundaryFetcher fetches relation outlines, implemented by
// datasource.BoundaryClient.
type BoundaryFetcher interface {
	FetchBoundary(ctx context.Context, relationID int64) (*geojson.Geometry, error)
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Pipeline  SelectionRunner
	Catalog   CatalogSource
	Communes  CommuneSearcher
	Neighbors NeighborLoader
	Boundary  BoundaryFetcher
	Metrics   *monitoring.Metrics
	Logger    *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a server from its dependencies.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps, logger: deps.Logger}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.logger))
	r.Use(Logging(s.logger))
	r.Use(CORS())

	r.Get("/healthz", s.handleHealthz)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/selection", s.handleSelection)
		r.Get("/presets/parks", s.handleParks)
		r.Get("/presets/regions", s.handleRegions)
		r.Get("/presets/departements", s.handleDepartements)
		r.Get("/communes", s.handleCommunes)
		r.Get("/neighbors", s.handleNeighbors)
		r.Get("/boundary/{relationID}", s.handleBoundary)
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
