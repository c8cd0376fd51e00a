package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/types"
)

type fakeDataSource struct {
	result    *overpass.Result
	err       error
	calls     int
	lastKeys  []string
	fetchHook func()
}

func (f *fakeDataSource) FetchSelection(ctx context.Context, area types.AreaSelection, keys []string) (*datasource.SelectionData, error) {
	f.calls++
	f.lastKeys = keys
	if f.fetchHook != nil {
		f.fetchHook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &datasource.SelectionData{Area: area, Result: f.result}, nil
}

type fakeRenderer struct {
	loading  []bool
	rendered []Snapshot
}

func (f *fakeRenderer) ShowLoading(visible bool) {
	f.loading = append(f.loading, visible)
}

func (f *fakeRenderer) RenderResults(snapshot Snapshot) {
	f.rendered = append(f.rendered, snapshot)
}

func mountainResult() *overpass.Result {
	return &overpass.Result{
		Nodes: map[int64]*overpass.Node{
			101: {
				Meta: overpass.Meta{
					ID:   101,
					Tags: map[string]string{"tourism": "hotel", "name": "Refuge des Oulettes"},
				},
				Lat: 42.85,
				Lon: 0.15,
			},
		},
		Relations: map[int64]*overpass.Relation{
			401: {
				Meta: overpass.Meta{
					ID:   401,
					Tags: map[string]string{"ref": "GR 10", "route": "hiking", "type": "route", "name": "GR 10"},
				},
				Members: []overpass.RelationMember{
					{
						Type: "way",
						Way: &overpass.Way{
							Meta: overpass.Meta{ID: 301, Tags: map[string]string{"highway": "path"}},
							Geometry: []overpass.Point{
								{Lat: 42.9, Lon: 0.2},
								{Lat: 42.91, Lon: 0.21},
							},
						},
					},
				},
			},
		},
	}
}

func testArea() types.AreaSelection {
	return types.RectSelection(
		types.Point{Lat: 42.8, Lng: 0.1},
		types.Point{Lat: 43.0, Lng: 0.3},
	)
}

func TestSelectEndToEnd(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	renderer := &fakeRenderer{}
	p := New(ds, nil, WithRenderer(renderer))

	snapshot, err := p.Select(context.Background(), testArea(), types.CategoryFilter{}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if len(snapshot.POIs) != 1 {
		t.Fatalf("pois = %d, want 1", len(snapshot.POIs))
	}
	poi := snapshot.POIs[0]
	if poi.Category != types.CategoryTourism || poi.Name != "Refuge des Oulettes" {
		t.Errorf("poi = %+v", poi)
	}

	if len(snapshot.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(snapshot.Segments))
	}
	seg := snapshot.Segments[0]
	if seg.Category != types.PathHikingRoutes {
		t.Errorf("segment category = %s, want hiking_routes", seg.Category)
	}
	if seg.Style.Color != "#a855f7" || seg.Style.Weight != 4 {
		t.Errorf("segment style = %+v", seg.Style)
	}
	if seg.RelationRef != "GR 10" {
		t.Errorf("relation ref = %q", seg.RelationRef)
	}

	if len(snapshot.Stats) != 1 || snapshot.Stats[0].Category != types.CategoryTourism || snapshot.Stats[0].Count != 1 {
		t.Errorf("stats = %+v", snapshot.Stats)
	}

	// Renderer saw loading on, results, loading off.
	if len(renderer.loading) != 2 || !renderer.loading[0] || renderer.loading[1] {
		t.Errorf("loading sequence = %v, want [true false]", renderer.loading)
	}
	if len(renderer.rendered) != 1 || renderer.rendered[0].Token != snapshot.Token {
		t.Errorf("rendered = %d snapshots", len(renderer.rendered))
	}

	current, ok := p.Current()
	if !ok || current.Token != snapshot.Token {
		t.Errorf("Current = %+v, %v", current, ok)
	}
}

func TestSelectPassesResolvedKeys(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil)

	filter := types.CategoryFilter{Categories: []string{"tourism"}}
	if _, err := p.Select(context.Background(), testArea(), filter, nil); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(ds.lastKeys) != 1 || ds.lastKeys[0] != "tourism" {
		t.Errorf("keys = %v, want [tourism]", ds.lastKeys)
	}

	// The none sentinel yields no keys but still runs the fetch for the
	// network.
	filter = types.CategoryFilter{Categories: []string{types.FilterNone}}
	if _, err := p.Select(context.Background(), testArea(), filter, nil); err != nil {
		t.Fatalf("Select none: %v", err)
	}
	if len(ds.lastKeys) != 0 {
		t.Errorf("keys = %v, want none", ds.lastKeys)
	}
	if ds.calls != 2 {
		t.Errorf("calls = %d, network must still be fetched", ds.calls)
	}
}

func TestSelectFailureKeepsPreviousSnapshot(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	renderer := &fakeRenderer{}
	p := New(ds, nil, WithRenderer(renderer))
	ctx := context.Background()

	first, err := p.Select(ctx, testArea(), types.CategoryFilter{}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	ds.err = errors.New("overpass: status 429")
	if _, err := p.Select(ctx, testArea(), types.CategoryFilter{}, nil); err == nil {
		t.Fatal("expected fetch error")
	}

	current, ok := p.Current()
	if !ok || current.Token != first.Token {
		t.Errorf("previous snapshot lost: %+v, %v", current.Token, ok)
	}
	if len(renderer.rendered) != 1 {
		t.Errorf("failed selection must not render, rendered = %d", len(renderer.rendered))
	}
	// Loading cleared on both the success and the failure path.
	if len(renderer.loading) != 4 || renderer.loading[3] {
		t.Errorf("loading sequence = %v", renderer.loading)
	}
}

func TestSelectStaleResponseDiscarded(t *testing.T) {
	slow := &fakeDataSource{result: &overpass.Result{}}
	p := New(slow, nil)

	// While the first selection is in flight, a second one starts and
	// completes. The first response must then be discarded.
	var second Snapshot
	slow.fetchHook = func() {
		slow.fetchHook = nil
		var err error
		second, err = p.Select(context.Background(), testArea(), types.CategoryFilter{}, nil)
		if err != nil {
			t.Errorf("inner select: %v", err)
		}
	}

	_, err := p.Select(context.Background(), testArea(), types.CategoryFilter{}, nil)
	if !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("err = %v, want ErrStaleSelection", err)
	}

	current, ok := p.Current()
	if !ok || current.Token != second.Token {
		t.Errorf("current snapshot = token %d, want the newer selection's %d", current.Token, second.Token)
	}
}

func TestSelectEmptySelection(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil)

	_, err := p.Select(context.Background(), types.AreaSelection{}, types.CategoryFilter{}, nil)
	if !errors.Is(err, types.ErrEmptySelection) {
		t.Errorf("err = %v, want ErrEmptySelection", err)
	}
	if ds.calls != 0 {
		t.Errorf("empty selection must not fetch, calls = %d", ds.calls)
	}
}

func TestSelectPathCategoryFilter(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil)

	filter := types.CategoryFilter{PathCategories: []string{"tracks"}}
	snapshot, err := p.Select(context.Background(), testArea(), filter, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// The snapshot keeps every styled segment; the toggle only narrows the
	// projection.
	if len(snapshot.Segments) != 1 {
		t.Errorf("segments = %+v, want full working set", snapshot.Segments)
	}
	if got := snapshot.VisibleSegments(filter); len(got) != 0 {
		t.Errorf("visible segments = %+v, hiking_routes should be hidden", got)
	}
	if got := snapshot.VisibleSegments(types.CategoryFilter{}); len(got) != 1 {
		t.Errorf("visible segments = %+v, lifting the toggle should restore", got)
	}
}

func TestSelectExclusionReversibleWithoutRefetch(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil)

	filter := types.CategoryFilter{ExcludedTypes: []string{"hotel"}}
	snapshot, err := p.Select(context.Background(), testArea(), filter, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := snapshot.FilteredPOIs(filter); len(got) != 0 {
		t.Errorf("filtered pois = %+v, hotel should be hidden", got)
	}
	if got := snapshot.FilteredPOIs(types.CategoryFilter{}); len(got) != 1 {
		t.Errorf("filtered pois = %+v, lifting the exclusion should restore the POI", got)
	}
	if ds.calls != 1 {
		t.Errorf("calls = %d, exclusion toggles must not refetch", ds.calls)
	}
}

func TestSnapshotClientSideFiltering(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil)

	snapshot, err := p.Select(context.Background(), testArea(), types.CategoryFilter{}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if ds.calls != 1 {
		t.Fatalf("calls = %d", ds.calls)
	}

	// Narrowing the view is purely local.
	if got := snapshot.FilteredPOIs(types.CategoryFilter{Categories: []string{"shop"}}); len(got) != 0 {
		t.Errorf("filtered pois = %+v", got)
	}
	if got := snapshot.FilteredPOIs(types.CategoryFilter{Categories: []string{"tourism"}}); len(got) != 1 {
		t.Errorf("filtered pois = %+v", got)
	}
	if got := snapshot.VisibleSegments(types.CategoryFilter{PathCategories: []string{"hiking_routes"}}); len(got) != 1 {
		t.Errorf("visible segments = %+v", got)
	}
	if got := snapshot.VisibleSegments(types.CategoryFilter{PathCategories: []string{"pistes"}}); len(got) != 0 {
		t.Errorf("visible segments = %+v", got)
	}
	if ds.calls != 1 {
		t.Errorf("client-side filtering must not refetch, calls = %d", ds.calls)
	}
}

func TestSelectWeightScale(t *testing.T) {
	ds := &fakeDataSource{result: mountainResult()}
	p := New(ds, nil, WithWeightScale(2))

	snapshot, err := p.Select(context.Background(), testArea(), types.CategoryFilter{}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(snapshot.Segments) != 1 || snapshot.Segments[0].Style.Weight != 8 {
		t.Errorf("segments = %+v, want weight 4*2", snapshot.Segments)
	}
}
