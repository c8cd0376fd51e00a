package datasource

import (
	"fmt"
	"sort"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/randoscope/randoscope/internal/classify"
	"github.com/randoscope/randoscope/internal/types"
)

// ExtractSelection converts an Overpass result into classified POIs and raw
// network segments.
//
// Nodes are classified and scoped to the filter's categories; unknown-
// category nodes are dropped. Type exclusions are not applied here: they
// narrow an already-fetched working set and must stay reversible. Ways
// become one segment each, typed by their dominant tag. Route relations
// become one segment per member way, carrying the relation's name, ref and
// route so the styling layer can outrank the member's own tags.
func ExtractSelection(result *overpass.Result, filter types.CategoryFilter) ([]types.POI, []types.NetworkSegment) {
	if result == nil {
		return nil, nil
	}

	var pois []types.POI
	for _, node := range result.Nodes {
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		c := classify.Classify(node.Tags)
		if c.Category == types.CategoryUnknown {
			continue
		}
		if !filter.AllowsCategory(c.Category) {
			continue
		}
		pois = append(pois, types.POI{
			ID:       node.ID,
			Lat:      node.Lat,
			Lng:      node.Lon,
			Name:     classify.DisplayName(node.Tags, c.Type),
			Category: c.Category,
			Type:     c.Type,
			Tags:     node.Tags,
		})
	}

	var segments []types.NetworkSegment
	for _, way := range result.Ways {
		if way == nil || len(way.Tags) == 0 || len(way.Geometry) == 0 {
			continue
		}
		segments = append(segments, types.NetworkSegment{
			ID:       fmt.Sprintf("way/%d", way.ID),
			Type:     segmentType(way.Tags),
			Tags:     way.Tags,
			Geometry: convertGeometry(way.Geometry),
		})
	}

	for _, rel := range result.Relations {
		if rel == nil || len(rel.Tags) == 0 {
			continue
		}
		segments = append(segments, extractRelationSegments(rel)...)
	}

	// Map iteration order is random; sort for deterministic output.
	sort.Slice(pois, func(i, j int) bool { return pois[i].ID < pois[j].ID })
	sort.Slice(segments, func(i, j int) bool { return segments[i].ID < segments[j].ID })

	return pois, segments
}

// extractRelationSegments flattens a route relation into one segment per
// member way. Each segment keeps the relation's tags so GR/HRP routes style
// as routes regardless of what the member way is tagged as.
func extractRelationSegments(rel *overpass.Relation) []types.NetworkSegment {
	var segments []types.NetworkSegment
	for i, member := range rel.Members {
		if member.Type != "way" || member.Way == nil || len(member.Way.Geometry) == 0 {
			continue
		}
		segments = append(segments, types.NetworkSegment{
			ID:            fmt.Sprintf("relation/%d/%d", rel.ID, i),
			Type:          "relation",
			RelationName:  rel.Tags["name"],
			RelationRef:   rel.Tags["ref"],
			RelationRoute: rel.Tags["route"],
			Tags:          rel.Tags,
			Geometry:      convertGeometry(member.Way.Geometry),
		})
	}
	return segments
}

// segmentType picks the dominant network tag of a way.
func segmentType(tags types.Tags) string {
	for _, key := range []string{"highway", "railway", "aerialway", "piste:type"} {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return "unknown"
}

func convertGeometry(points []overpass.Point) []types.Point {
	out := make([]types.Point, len(points))
	for i, p := range points {
		out[i] = types.Point{Lat: p.Lat, Lng: p.Lon}
	}
	return out
}
