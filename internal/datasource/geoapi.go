package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/randoscope/randoscope/internal/types"
	"golang.org/x/time/rate"
)

// DefaultGeoAPIBaseURL is the French government administrative geography
// API.
const DefaultGeoAPIBaseURL = "https://geo.api.gouv.fr"

// communeSearchLimit caps search results, matching the API's boost-by-
// population ordering so the most relevant communes come first.
const communeSearchLimit = 10

// GeoAPIClient queries geo.api.gouv.fr for commune contours. Requests are
// rate limited; the API is a shared public service.
type GeoAPIClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewGeoAPIClient creates a commune lookup client. A nil httpClient uses a
// default with a 30s timeout.
func NewGeoAPIClient(baseURL string, httpClient *http.Client) *GeoAPIClient {
	if baseURL == "" {
		baseURL = DefaultGeoAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeoAPIClient{
		baseURL: baseURL,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
	}
}

// SearchCommunes looks up communes by name, with full polygon contours.
// Queries shorter than 3 characters return no results without hitting the
// API.
func (c *GeoAPIClient) SearchCommunes(ctx context.Context, query string) ([]types.Commune, error) {
	if len([]rune(query)) < 3 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/communes?nom=%s&format=geojson&geometry=contour&boost=population&limit=%d",
		c.baseURL, url.QueryEscape(query), communeSearchLimit)
	return c.fetchCommunes(ctx, u)
}

// CommunesByDepartement lists all communes of a departement with their
// contours. This backs neighbor-zone lookups for commune selections.
func (c *GeoAPIClient) CommunesByDepartement(ctx context.Context, deptCode string) ([]types.Commune, error) {
	if deptCode == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/departements/%s/communes?format=geojson&geometry=contour",
		c.baseURL, url.PathEscape(deptCode))
	return c.fetchCommunes(ctx, u)
}

func (c *GeoAPIClient) fetchCommunes(ctx context.Context, u string) ([]types.Commune, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

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

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &MalformedResponseError{URL: u, Err: err}
	}

	communes := make([]types.Commune, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		communes = append(communes, featureToCommune(f))
	}
	return communes, nil
}

func featureToCommune(f *geojson.Feature) types.Commune {
	name := f.Properties.MustString("nom", "")
	code := f.Properties.MustString("code", "")
	deptCode := f.Properties.MustString("codeDepartement", "")

	// FullName shows the first postal code when available, the INSEE code
	// otherwise.
	postal := code
	if codes, ok := f.Properties["codesPostaux"].([]interface{}); ok && len(codes) > 0 {
		if s, ok := codes[0].(string); ok {
			postal = s
		}
	}

	bound := f.Geometry.Bound()
	bounds := types.BoundingBox{
		MinLon: bound.Min[0],
		MinLat: bound.Min[1],
		MaxLon: bound.Max[0],
		MaxLat: bound.Max[1],
	}
	lat, lng := bounds.Center()

	return types.Commune{
		Name:     name,
		FullName: fmt.Sprintf("%s (%s)", name, postal),
		Code:     code,
		DeptCode: deptCode,
		Geometry: geojson.NewGeometry(f.Geometry),
		Bounds:   bounds,
		Lat:      lat,
		Lng:      lng,
	}
}
