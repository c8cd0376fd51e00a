package classify

import (
	"sort"

	"github.com/randoscope/randoscope/internal/types"
)

// categoryKeys maps each top-level category to the Overpass tag keys that
// must be queried to retrieve its POIs. Several categories share keys
// (amenity feeds sustenance, accommodation and healthcare).
var categoryKeys = map[string][]string{
	"tourism":       {"tourism"},
	"sustenance":    {"amenity"},
	"accommodation": {"amenity", "tourism"},
	"leisure":       {"leisure"},
	"sport":         {"sport"},
	"historic":      {"historic"},
	"natural":       {"natural", "mountain_pass"},
	"shop":          {"shop"},
	"amenity":       {"amenity"},
	"transport":     {"public_transport", "railway"},
	"healthcare":    {"amenity", "healthcare"},
	"emergency":     {"emergency"},
	"office":        {"office"},
	"craft":         {"craft"},
	"man_made":      {"man_made"},
	"power":         {"power"},
	"barrier":       {"barrier"},
	"place":         {"place"},
}

// QueryKeys resolves selected categories into the sorted set of Overpass
// tag keys to query. An empty selection means all categories; the single
// `none` sentinel yields an empty key set (network data is still fetched by
// the caller).
func QueryKeys(categories []string) []string {
	set := make(map[string]bool)

	switch {
	case len(categories) == 0:
		for _, keys := range categoryKeys {
			for _, k := range keys {
				set[k] = true
			}
		}
	case len(categories) == 1 && categories[0] == types.FilterNone:
		// No POI keys at all.
	default:
		for _, cat := range categories {
			for _, k := range categoryKeys[cat] {
				set[k] = true
			}
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
