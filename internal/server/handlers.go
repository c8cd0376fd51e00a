package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/randoscope/randoscope/internal/classify"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/pipeline"
	"github.com/randoscope/randoscope/internal/types"
)

type selectionRequest struct {
	Ring           []types.Point      `json:"ring"`
	Categories     []string           `json:"categories,omitempty"`
	ExcludedTypes  []string           `json:"excludedTypes,omitempty"`
	PathCategories []string           `json:"pathCategories,omitempty"`
	Zone           *types.Zone        `json:"zone,omitempty"`
	Viewport       *types.BoundingBox `json:"viewport,omitempty"`
}

type selectionResponse struct {
	POIs      []types.POI             `json:"pois"`
	Segments  []types.StyledSegment   `json:"segments"`
	Stats     []classify.CategoryStat `json:"stats"`
	Neighbors []types.Neighbor        `json:"neighbors,omitempty"`
	FetchedAt time.Time               `json:"fetchedAt"`
}

// handleSelection runs a selection and, when the selection carries an
// administrative zone, resolves its neighbors in parallel. A neighbor
// failure degrades to a selection without neighbors rather than failing the
// whole request.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	area := types.AreaSelection{Ring: req.Ring}
	filter := types.CategoryFilter{
		Categories:     req.Categories,
		ExcludedTypes:  req.ExcludedTypes,
		PathCategories: req.PathCategories,
	}

	visible := area.Bounds()
	if req.Viewport != nil {
		visible = *req.Viewport
	}

	start := time.Now()

	var snapshot pipeline.Snapshot
	var zoneNeighbors []types.Neighbor

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		snapshot, err = s.deps.Pipeline.Select(ctx, area, filter, req.Zone)
		return err
	})
	g.Go(func() error {
		if req.Zone == nil || s.deps.Neighbors == nil {
			return nil
		}
		var err error
		zoneNeighbors, err = s.deps.Neighbors.Load(ctx, req.Zone, visible)
		if err != nil {
			s.logger.Warn("neighbor lookup failed", "kind", req.Zone.Kind, "error", err)
			zoneNeighbors = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		// Empty selections never reached the upstream.
		if !errors.Is(err, types.ErrEmptySelection) {
			s.observeSelection(time.Since(start), 0, false)
		}
		s.writeError(w, err)
		return
	}
	s.observeSelection(time.Since(start), len(snapshot.POIs), true)

	// The snapshot keeps the full working set; exclusions and path toggles
	// are applied here so they stay reversible without a refetch.
	writeJSON(w, http.StatusOK, selectionResponse{
		POIs:      snapshot.FilteredPOIs(filter),
		Segments:  snapshot.VisibleSegments(filter),
		Stats:     snapshot.Stats,
		Neighbors: zoneNeighbors,
		FetchedAt: snapshot.FetchedAt,
	})
}

func (s *Server) handleParks(w http.ResponseWriter, r *http.Request) {
	s.servePresets(w, r, s.deps.Catalog.Parks)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.servePresets(w, r, s.deps.Catalog.Regions)
}

func (s *Server) handleDepartements(w http.ResponseWriter, r *http.Request) {
	s.servePresets(w, r, s.deps.Catalog.Departements)
}

func (s *Server) servePresets(w http.ResponseWriter, r *http.Request, load func(context.Context) ([]types.Preset, error)) {
	presets, err := load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if presets == nil {
		presets = []types.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handleCommunes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("nom")
	communes, err := s.deps.Communes.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if communes == nil {
		communes = []types.Commune{}
	}
	writeJSON(w, http.StatusOK, communes)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zone := &types.Zone{
		Kind:     types.ZoneKind(q.Get("kind")),
		Code:     q.Get("code"),
		DeptCode: q.Get("deptCode"),
		Name:     q.Get("name"),
	}
	if zone.Kind == "" || zone.Code == "" {
		http.Error(w, "kind and code are required", http.StatusBadRequest)
		return
	}

	visible, err := boundsFromQuery(q.Get("bounds"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.NeighborLookups.WithLabelValues(string(zone.Kind)).Inc()
	}

	neighbors, err := s.deps.Neighbors.Load(r.Context(), zone, visible)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if neighbors == nil {
		neighbors = []types.Neighbor{}
	}
	writeJSON(w, http.StatusOK, neighbors)
}

func (s *Server) handleBoundary(w http.ResponseWriter, r *http.Request) {
	relationID, err := strconv.ParseInt(chi.URLParam(r, "relationID"), 10, 64)
	if err != nil || relationID <= 0 {
		http.Error(w, "invalid relation id", http.StatusBadRequest)
		return
	}

	geom, err := s.deps.Boundary.FetchBoundary(r.Context(), relationID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, geom)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// boundsFromQuery parses "minLat,minLon,maxLat,maxLon".
func boundsFromQuery(raw string) (types.BoundingBox, error) {
	if raw == "" {
		return types.BoundingBox{}, errors.New("bounds is required (minLat,minLon,maxLat,maxLon)")
	}
	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return types.BoundingBox{}, errors.New("bounds must have four comma-separated values")
	}
	var b types.BoundingBox
	for i, dst := range []*float64{&b.MinLat, &b.MinLon, &b.MaxLat, &b.MaxLon} {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return types.BoundingBox{}, errors.New("bounds values must be numbers")
		}
		*dst = v
	}
	return b, nil
}

func (s *Server) observeSelection(elapsed time.Duration, pois int, ok bool) {
	if s.deps.Metrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	s.deps.Metrics.UpstreamRequests.WithLabelValues("overpass", outcome).Inc()
	if ok {
		s.deps.Metrics.SelectionDuration.Observe(elapsed.Seconds())
		s.deps.Metrics.SelectionPOIs.Observe(float64(pois))
	}
}

// writeError maps pipeline and upstream failures to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrEmptySelection):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pipeline.ErrStaleSelection):
		http.Error(w, err.Error(), http.StatusConflict)
	case datasource.IsRetryable(err):
		http.Error(w, "upstream temporarily unavailable", http.StatusServiceUnavailable)
	default:
		var fe *datasource.FetchError
		var me *datasource.MalformedResponseError
		if errors.As(err, &fe) || errors.As(err, &me) {
			http.Error(w, "upstream request failed", http.StatusBadGateway)
			return
		}
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
