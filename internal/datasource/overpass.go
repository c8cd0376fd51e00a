package datasource

import (
	"context"
	"net/http"
	"time"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/randoscope/randoscope/internal/types"
)

// DefaultOverpassEndpoint is the public Overpass API interpreter.
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// SelectionData is the raw result of a selection fetch, before extraction
// and classification.
type SelectionData struct {
	Area      types.AreaSelection
	Result    *overpass.Result
	FetchedAt time.Time
	Source    string
}

// OverpassDataSource fetches OSM data from the Overpass API.
type OverpassDataSource struct {
	endpoint string
	client   overpass.Client
}

// NewOverpassDataSource creates a new Overpass data source.
func NewOverpassDataSource(endpoint string) *OverpassDataSource {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}

	// Create client (rate limited to 1 concurrent request, API etiquette)
	client := overpass.NewWithSettings(
		endpoint,
		1,
		http.DefaultClient,
	)

	return &OverpassDataSource{
		endpoint: endpoint,
		client:   client,
	}
}

// FetchSelection fetches all POI nodes matching the given tag keys plus the
// path network (ways and route relations) inside the selection polygon.
//
// An empty keys slice skips the node clause but still fetches the network.
func (ds *OverpassDataSource) FetchSelection(ctx context.Context, area types.AreaSelection, keys []string) (*SelectionData, error) {
	area, err := area.Normalize()
	if err != nil {
		return nil, err
	}

	query := BuildSelectionQuery(area.Ring, keys)

	// Execute query (note: this client version doesn't support context)
	result, err := ds.client.Query(query)
	if err != nil {
		return nil, &FetchError{URL: ds.endpoint, Err: err}
	}

	return &SelectionData{
		Area:      area,
		Result:    &result,
		FetchedAt: time.Now(),
		Source:    "overpass-api",
	}, nil
}

// Close cleans up resources (no-op for current client version).
func (ds *OverpassDataSource) Close() error {
	return nil
}
