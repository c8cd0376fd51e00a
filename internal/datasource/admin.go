package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/randoscope/randoscope/internal/types"
)

// frenchParksCollection is the OSM relation grouping the French regional
// nature parks (PNR).
const frenchParksCollection = 9091001

// AdminClient runs the catalog queries (parks, regions, departements)
// against Overpass directly over HTTP. These queries use "out tags bb",
// which returns per-element bounding boxes the go-overpass client does not
// parse.
type AdminClient struct {
	endpoint string
	client   *http.Client
}

// NewAdminClient creates an admin catalog client. A nil httpClient falls
// back to a client with a timeout generous enough for the 90s country-wide
// queries.
func NewAdminClient(endpoint string, httpClient *http.Client) *AdminClient {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &AdminClient{endpoint: endpoint, client: httpClient}
}

// adminElement mirrors the elements of an "out tags bb" Overpass response.
type adminElement struct {
	ID     int64             `json:"id"`
	Tags   map[string]string `json:"tags"`
	Bounds *adminBounds      `json:"bounds"`
}

type adminBounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

type adminResponse struct {
	Elements []adminElement `json:"elements"`
}

// FetchParks lists the French regional nature parks, sorted by name.
func (c *AdminClient) FetchParks(ctx context.Context) ([]types.Preset, error) {
	return c.FetchParkCollection(ctx, frenchParksCollection)
}

// FetchParkCollection lists the member relations of a park collection
// relation, sorted by name.
func (c *AdminClient) FetchParkCollection(ctx context.Context, collectionID int64) ([]types.Preset, error) {
	elements, err := c.run(ctx, BuildCollectionQuery(collectionID))
	if err != nil {
		return nil, fmt.Errorf("fetching park collection %d: %w", collectionID, err)
	}
	return toPresets(elements, ""), nil
}

// FetchRegions lists the metropolitan French regions (admin_level 4),
// sorted by name.
func (c *AdminClient) FetchRegions(ctx context.Context) ([]types.Preset, error) {
	elements, err := c.run(ctx, BuildAdminAreaQuery("4"))
	if err != nil {
		return nil, fmt.Errorf("fetching regions: %w", err)
	}
	return toPresets(elements, types.ZoneRegion), nil
}

// FetchDepartements lists the metropolitan French departements
// (admin_level 6), sorted by name.
func (c *AdminClient) FetchDepartements(ctx context.Context) ([]types.Preset, error) {
	elements, err := c.run(ctx, BuildAdminAreaQuery("6"))
	if err != nil {
		return nil, fmt.Errorf("fetching departements: %w", err)
	}
	return toPresets(elements, types.ZoneDept), nil
}

func (c *AdminClient) run(ctx context.Context, query string) ([]adminElement, error) {
	body := strings.NewReader("data=" + url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: c.endpoint, StatusCode: resp.StatusCode}
	}

	var parsed adminResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &MalformedResponseError{URL: c.endpoint, Err: err}
	}
	return parsed.Elements, nil
}

// toPresets converts raw elements to presets, dropping unnamed or unbounded
// elements and sorting by name.
func toPresets(elements []adminElement, adminType types.ZoneKind) []types.Preset {
	presets := make([]types.Preset, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" || el.Bounds == nil {
			continue
		}
		ref := el.Tags["ref:INSEE"]
		if ref == "" {
			ref = el.Tags["ref"]
		}
		presets = append(presets, types.Preset{
			Name:       name,
			Ref:        ref,
			RelationID: el.ID,
			AdminType:  adminType,
			Bounds: types.BoundingBox{
				MinLat: el.Bounds.MinLat,
				MinLon: el.Bounds.MinLon,
				MaxLat: el.Bounds.MaxLat,
				MaxLon: el.Bounds.MaxLon,
			},
		})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}
