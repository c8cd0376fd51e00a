package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb/geojson"
)

// DefaultBoundaryBaseURL serves simplified boundary polygons for OSM
// relations.
const DefaultBoundaryBaseURL = "http://polygons.openstreetmap.fr"

// BoundaryClient fetches simplified relation boundaries. Park presets have
// no INSEE contour, so their outline comes from here instead of the
// administrative geography API.
type BoundaryClient struct {
	baseURL string
	client  *http.Client
}

// NewBoundaryClient creates a boundary client. A nil httpClient uses a
// default with a 30s timeout.
func NewBoundaryClient(baseURL string, httpClient *http.Client) *BoundaryClient {
	if baseURL == "" {
		baseURL = DefaultBoundaryBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &BoundaryClient{baseURL: baseURL, client: httpClient}
}

// FetchBoundary returns the simplified boundary geometry of an OSM
// relation. params=0 requests the default simplification.
func (c *BoundaryClient) FetchBoundary(ctx context.Context, relationID int64) (*geojson.Geometry, error) {
	u := fmt.Sprintf("%s/get_geojson.py?id=%d&params=0", c.baseURL, relationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: u, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	geom, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, &MalformedResponseError{URL: u, Err: err}
	}
	return geom, nil
}
