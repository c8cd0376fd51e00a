// Package pipeline orchestrates a selection: normalize the polygon, resolve
// the tag keys to query, fetch, classify and style, then hand the snapshot
// to the renderer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randoscope/randoscope/internal/classify"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/netstyle"
	"github.com/randoscope/randoscope/internal/types"
)

// ErrStaleSelection is returned when a selection's response arrived after a
// newer selection was started. The stale result is discarded and the
// current snapshot stays untouched.
var ErrStaleSelection = errors.New("selection superseded by a newer request")

// DataSource fetches raw Overpass data for a selection polygon.
type DataSource interface {
	FetchSelection(ctx context.Context, area types.AreaSelection, keys []string) (*datasource.SelectionData, error)
}

// Renderer receives pipeline output. ShowLoading(true) is always balanced
// by ShowLoading(false), whatever the outcome.
type Renderer interface {
	ShowLoading(visible bool)
	RenderResults(snapshot Snapshot)
}

// Snapshot is the fully processed result of one selection. POIs and
// Segments hold the complete working set for the selected categories;
// type exclusions and path-category toggles are projections over it
// (FilteredPOIs, VisibleSegments), so lifting one restores the hidden
// elements without a refetch.
type Snapshot struct {
	Token     uint64
	Area      types.AreaSelection
	Zone      *types.Zone
	Filter    types.CategoryFilter
	POIs      []types.POI
	Segments  []types.StyledSegment
	Stats     []classify.CategoryStat
	FetchedAt time.Time
}

// FilteredPOIs narrows the snapshot's POIs without refetching. Toggling
// categories on already-fetched data stays local.
func (s Snapshot) FilteredPOIs(filter types.CategoryFilter) []types.POI {
	var out []types.POI
	for _, p := range s.POIs {
		if filter.AllowsCategory(p.Category) && !filter.ExcludesType(p.Type) {
			out = append(out, p)
		}
	}
	return out
}

// VisibleSegments narrows the snapshot's network without refetching.
func (s Snapshot) VisibleSegments(filter types.CategoryFilter) []types.StyledSegment {
	var out []types.StyledSegment
	for _, seg := range s.Segments {
		if filter.AllowsPathCategory(seg.Category) {
			out = append(out, seg)
		}
	}
	return out
}

// Pipeline runs selections against a data source. Concurrent selections are
// serialized by token: only the most recently started selection may publish
// its result.
type Pipeline struct {
	ds          DataSource
	renderer    Renderer
	logger      *slog.Logger
	weightScale float64

	token atomic.Uint64

	mu         sync.Mutex
	current    Snapshot
	hasCurrent bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWeightScale sets the stroke weight multiplier applied to all network
// styles.
func WithWeightScale(scale float64) Option {
	return func(p *Pipeline) {
		p.weightScale = scale
	}
}

// WithRenderer attaches a renderer. Without one the pipeline only returns
// snapshots.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// New creates a pipeline over the given data source.
func New(ds DataSource, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		ds:          ds,
		logger:      logger,
		weightScale: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select runs one selection end to end and publishes the snapshot.
//
// On fetch failure the previous snapshot is kept and the error returned. If
// a newer selection started while this one was in flight, the response is
// dropped and ErrStaleSelection returned; the newer selection owns the
// state.
func (p *Pipeline) Select(ctx context.Context, area types.AreaSelection, filter types.CategoryFilter, zone *types.Zone) (Snapshot, error) {
	token := p.token.Add(1)

	p.showLoading(true)
	defer p.showLoading(false)

	area, err := area.Normalize()
	if err != nil {
		return Snapshot{}, err
	}

	keys := classify.QueryKeys(filter.Categories)
	log := p.logger.With("token", token, "ring_points", len(area.Ring), "keys", len(keys))
	log.Info("running selection")

	start := time.Now()
	data, err := p.ds.FetchSelection(ctx, area, keys)
	if err != nil {
		log.Error("selection fetch failed, keeping previous results", "error", err)
		return Snapshot{}, fmt.Errorf("selection fetch: %w", err)
	}

	if p.token.Load() != token {
		log.Info("discarding stale selection response")
		return Snapshot{}, ErrStaleSelection
	}

	pois, rawSegments := datasource.ExtractSelection(data.Result, filter)

	segments := make([]types.StyledSegment, 0, len(rawSegments))
	for _, seg := range rawSegments {
		segments = append(segments, netstyle.ResolveSegment(seg, p.weightScale))
	}

	snapshot := Snapshot{
		Token:     token,
		Area:      area,
		Zone:      zone,
		Filter:    filter,
		POIs:      pois,
		Segments:  segments,
		Stats:     classify.Stats(pois),
		FetchedAt: data.FetchedAt,
	}

	p.mu.Lock()
	p.current = snapshot
	p.hasCurrent = true
	p.mu.Unlock()

	log.Info("selection complete",
		"pois", len(pois),
		"segments", len(segments),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if p.renderer != nil {
		p.renderer.RenderResults(snapshot)
	}
	return snapshot, nil
}

// Current returns the last published snapshot, if any.
func (p *Pipeline) Current() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.hasCurrent
}

func (p *Pipeline) showLoading(visible bool) {
	if p.renderer != nil {
		p.renderer.ShowLoading(visible)
	}
}
