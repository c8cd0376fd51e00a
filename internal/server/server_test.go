package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/randoscope/randoscope/internal/classify"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/pipeline"
	"github.com/randoscope/randoscope/internal/types"
)

type fakePipeline struct {
	snapshot pipeline.Snapshot
	err      error
	lastArea types.AreaSelection
}

func (f *fakePipeline) Select(ctx context.Context, area types.AreaSelection, filter types.CategoryFilter, zone *types.Zone) (pipeline.Snapshot, error) {
	f.lastArea = area
	if f.err != nil {
		return pipeline.Snapshot{}, f.err
	}
	return f.snapshot, nil
}

type fakeCatalog struct {
	parks []types.Preset
	err   error
}

func (f *fakeCatalog) Parks(ctx context.Context) ([]types.Preset, error)        { return f.parks, f.err }
func (f *fakeCatalog) Regions(ctx context.Context) ([]types.Preset, error)      { return nil, f.err }
func (f *fakeCatalog) Departements(ctx context.Context) ([]types.Preset, error) { return nil, f.err }

type fakeCommunes struct {
	communes []types.Commune
}

func (f *fakeCommunes) Search(ctx context.Context, query string) ([]types.Commune, error) {
	return f.communes, nil
}

type fakeNeighbors struct {
	neighbors []types.Neighbor
	err       error
	lastZone  *types.Zone
	calls     int
}

func (f *fakeNeighbors) Load(ctx context.Context, zone *types.Zone, visible types.BoundingBox) ([]types.Neighbor, error) {
	f.calls++
	f.lastZone = zone
	return f.neighbors, f.err
}

type fakeBoundary struct {
	geom   *geojson.Geometry
	err    error
	lastID int64
}

func (f *fakeBoundary) FetchBoundary(ctx context.Context, relationID int64) (*geojson.Geometry, error) {
	f.lastID = relationID
	return f.geom, f.err
}

func testServer(deps Deps) *httptest.Server {
	return httptest.NewServer(New(deps).Router())
}

func testSnapshot() pipeline.Snapshot {
	return pipeline.Snapshot{
		Token: 1,
		POIs: []types.POI{
			{ID: 101, Lat: 42.85, Lng: 0.15, Name: "Refuge", Category: types.CategoryTourism, Type: "alpine_hut"},
		},
		Segments: []types.StyledSegment{
			{
				NetworkSegment: types.NetworkSegment{ID: "relation/401/0", Type: "relation", RelationRef: "GR 10"},
				Category:       types.PathHikingRoutes,
				Style:          types.Style{Color: "#a855f7", Weight: 4, Opacity: 0.9},
			},
		},
		Stats: []classify.CategoryStat{
			{Category: types.CategoryTourism, Color: "#e11d48", Count: 1},
		},
	}
}

func postSelection(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url+"/api/selection", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return resp
}

func TestSelectionEndpoint(t *testing.T) {
	p := &fakePipeline{snapshot: testSnapshot()}
	n := &fakeNeighbors{}
	srv := testServer(Deps{Pipeline: p, Neighbors: n})
	defer srv.Close()

	resp := postSelection(t, srv.URL, selectionRequest{
		Ring: []types.Point{{Lat: 42.8, Lng: 0.1}, {Lat: 43.0, Lng: 0.1}, {Lat: 43.0, Lng: 0.3}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got selectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.POIs) != 1 || got.POIs[0].Name != "Refuge" {
		t.Errorf("pois = %+v", got.POIs)
	}
	if len(got.Segments) != 1 || got.Segments[0].Style.Color != "#a855f7" {
		t.Errorf("segments = %+v", got.Segments)
	}
	if len(got.Stats) != 1 || got.Stats[0].Count != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}

	// No zone: no neighbor lookup.
	if n.calls != 0 {
		t.Errorf("neighbors looked up without a zone, calls = %d", n.calls)
	}
}

func TestSelectionAppliesExclusionsAtResponseEdge(t *testing.T) {
	p := &fakePipeline{snapshot: testSnapshot()}
	srv := testServer(Deps{Pipeline: p})
	defer srv.Close()

	resp := postSelection(t, srv.URL, selectionRequest{
		Ring:          []types.Point{{Lat: 42.8, Lng: 0.1}, {Lat: 43.0, Lng: 0.1}, {Lat: 43.0, Lng: 0.3}},
		ExcludedTypes: []string{"alpine_hut"},
	})
	defer resp.Body.Close()

	var got selectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.POIs) != 0 {
		t.Errorf("pois = %+v, excluded type should not be served", got.POIs)
	}
	// Stats describe the working set so the excluded type stays listed and
	// re-enableable.
	if len(got.Stats) != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}
}

func TestSelectionWithZoneLoadsNeighbors(t *testing.T) {
	p := &fakePipeline{snapshot: testSnapshot()}
	n := &fakeNeighbors{neighbors: []types.Neighbor{
		{Kind: types.ZoneCommune, Name: "Luz-Saint-Sauveur", Code: "65295"},
	}}
	srv := testServer(Deps{Pipeline: p, Neighbors: n})
	defer srv.Close()

	resp := postSelection(t, srv.URL, selectionRequest{
		Ring: []types.Point{{Lat: 42.8, Lng: 0.1}, {Lat: 43.0, Lng: 0.1}, {Lat: 43.0, Lng: 0.3}},
		Zone: &types.Zone{Kind: types.ZoneCommune, Code: "65138", Name: "Cauterets"},
	})
	defer resp.Body.Close()

	var got selectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Neighbors) != 1 || got.Neighbors[0].Code != "65295" {
		t.Errorf("neighbors = %+v", got.Neighbors)
	}
	if n.lastZone == nil || n.lastZone.Code != "65138" {
		t.Errorf("zone = %+v", n.lastZone)
	}
}

func TestSelectionNeighborFailureDegrades(t *testing.T) {
	p := &fakePipeline{snapshot: testSnapshot()}
	n := &fakeNeighbors{err: errors.New("geoapi down")}
	srv := testServer(Deps{Pipeline: p, Neighbors: n})
	defer srv.Close()

	resp := postSelection(t, srv.URL, selectionRequest{
		Ring: []types.Point{{Lat: 42.8, Lng: 0.1}, {Lat: 43.0, Lng: 0.1}, {Lat: 43.0, Lng: 0.3}},
		Zone: &types.Zone{Kind: types.ZoneCommune, Code: "65138"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, neighbor failure must not fail the selection", resp.StatusCode)
	}
	var got selectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.POIs) != 1 || got.Neighbors != nil {
		t.Errorf("pois = %d neighbors = %+v", len(got.POIs), got.Neighbors)
	}
}

func TestSelectionErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty selection", types.ErrEmptySelection, http.StatusBadRequest},
		{"stale", pipeline.ErrStaleSelection, http.StatusConflict},
		{"rate limited", &datasource.FetchError{URL: "x", StatusCode: 429}, http.StatusServiceUnavailable},
		{"gateway timeout", &datasource.FetchError{URL: "x", StatusCode: 504}, http.StatusServiceUnavailable},
		{"upstream broken", &datasource.FetchError{URL: "x", StatusCode: 500}, http.StatusBadGateway},
		{"malformed upstream", &datasource.MalformedResponseError{URL: "x", Err: errors.New("bad json")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := testServer(Deps{Pipeline: &fakePipeline{err: tc.err}})
			defer srv.Close()

			resp := postSelection(t, srv.URL, selectionRequest{
				Ring: []types.Point{{Lat: 42.8, Lng: 0.1}, {Lat: 43.0, Lng: 0.1}, {Lat: 43.0, Lng: 0.3}},
			})
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestSelectionBadBody(t *testing.T) {
	srv := testServer(Deps{Pipeline: &fakePipeline{}})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/selection", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestParksEndpoint(t *testing.T) {
	catalog := &fakeCatalog{parks: []types.Preset{{Name: "PNR du Vercors", RelationID: 11}}}
	srv := testServer(Deps{Catalog: catalog})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/presets/parks")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var parks []types.Preset
	if err := json.NewDecoder(resp.Body).Decode(&parks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parks) != 1 || parks[0].RelationID != 11 {
		t.Errorf("parks = %+v", parks)
	}
}

func TestCommunesEndpoint(t *testing.T) {
	srv := testServer(Deps{Communes: &fakeCommunes{communes: []types.Commune{
		{Name: "Cauterets", Code: "65138"},
	}}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/communes?nom=caut")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var communes []types.Commune
	if err := json.NewDecoder(resp.Body).Decode(&communes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(communes) != 1 || communes[0].Code != "65138" {
		t.Errorf("communes = %+v", communes)
	}
}

func TestNeighborsEndpoint(t *testing.T) {
	n := &fakeNeighbors{neighbors: []types.Neighbor{{Kind: types.ZoneDept, Name: "Pyrénées-Atlantiques", Code: "64"}}}
	srv := testServer(Deps{Neighbors: n})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/neighbors?kind=dept&code=65&bounds=42.5,-0.5,43.5,1.0")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var neighbors []types.Neighbor
	if err := json.NewDecoder(resp.Body).Decode(&neighbors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Code != "64" {
		t.Errorf("neighbors = %+v", neighbors)
	}
	if n.lastZone.Kind != types.ZoneDept || n.lastZone.Code != "65" {
		t.Errorf("zone = %+v", n.lastZone)
	}
}

func TestNeighborsEndpointValidation(t *testing.T) {
	srv := testServer(Deps{Neighbors: &fakeNeighbors{}})
	defer srv.Close()

	for _, path := range []string{
		"/api/neighbors",
		"/api/neighbors?kind=dept&code=65",
		"/api/neighbors?kind=dept&code=65&bounds=1,2,3",
		"/api/neighbors?kind=dept&code=65&bounds=a,b,c,d",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestBoundaryEndpoint(t *testing.T) {
	b := &fakeBoundary{geom: geojson.NewGeometry(orb.Polygon{
		{{0.1, 42.8}, {0.3, 42.8}, {0.3, 43.0}, {0.1, 42.8}},
	})}
	srv := testServer(Deps{Boundary: b})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/boundary/149668")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if b.lastID != 149668 {
		t.Errorf("relation id = %d", b.lastID)
	}
	var geom geojson.Geometry
	if err := json.NewDecoder(resp.Body).Decode(&geom); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if geom.Type != "Polygon" {
		t.Errorf("geometry type = %s", geom.Type)
	}

	resp, err = http.Get(srv.URL + "/api/boundary/notanumber")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(Deps{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflights(t *testing.T) {
	srv := testServer(Deps{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/selection", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
