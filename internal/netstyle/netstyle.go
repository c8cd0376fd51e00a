// Package netstyle categorizes and styles network segments (paths, roads,
// rails, lifts, pistes, waterways).
//
// Category and style are two projections of a single decision tree: every
// rule yields both at once, so they cannot diverge. Rules are evaluated in
// declaration order; the first applicable rule wins.
package netstyle

import (
	"strings"

	"github.com/randoscope/randoscope/internal/types"
)

// Decision is the resolved category and style of a segment.
type Decision struct {
	Category types.PathCategory
	Style    types.Style
}

type rule struct {
	name  string
	apply func(in input) (Decision, bool)
}

type input struct {
	segType  string
	tags     types.Tags
	relRef   string
	relRoute string
	scale    float64 // caller-supplied weight multiplier
}

// standingWater reports whether the segment is a standing-water polygon
// rather than a linear feature.
func standingWater(tags types.Tags) bool {
	return tags["natural"] == "water" ||
		tags["landuse"] == "reservoir" ||
		tags["landuse"] == "basin"
}

var aerialwayTypes = map[string]bool{
	"cable_car": true, "gondola": true, "chair_lift": true, "drag_lift": true,
	"t-bar": true, "j-bar": true, "platter": true, "rope_tow": true,
	"magic_carpet": true, "zip_line": true, "goods": true, "mixed_lift": true,
}

var pisteTypes = map[string]bool{
	"downhill": true, "nordic": true, "skitour": true,
	"sled": true, "hike": true, "sleigh": true,
}

var railTypes = map[string]bool{
	"rail": true, "narrow_gauge": true, "funicular": true, "subway": true,
	"light_rail": true, "preserved": true, "monorail": true,
}

func aerialwayStyle(scale float64) types.Style {
	return types.Style{Color: "#1e293b", Weight: 2 * scale, Opacity: 1, DashArray: "1, 3", Render: types.RenderPolyline}
}

func railwayStyle(scale float64) types.Style {
	return types.Style{Color: "#4b5563", Weight: 2 * scale, Opacity: 1, DashArray: "10, 10", Render: types.RenderPolyline}
}

func pisteStyle(tags types.Tags, scale float64) types.Style {
	switch tags["piste:difficulty"] {
	case "novice":
		return types.Style{Color: "#22c55e", Weight: 3 * scale, Opacity: 0.8, Render: types.RenderPolyline}
	case "easy":
		return types.Style{Color: "#3b82f6", Weight: 3 * scale, Opacity: 0.8, Render: types.RenderPolyline}
	case "intermediate":
		return types.Style{Color: "#ef4444", Weight: 3 * scale, Opacity: 0.8, Render: types.RenderPolyline}
	case "advanced", "expert":
		return types.Style{Color: "#000000", Weight: 3 * scale, Opacity: 0.8, Render: types.RenderPolyline}
	}
	return types.Style{Color: "#0ea5e9", Weight: 3 * scale, Opacity: 0.7, Render: types.RenderPolyline}
}

// rules is the unified decision table. Priority, colors and weights follow
// the long-distance-route > via-ferrata > sac_scale > type > tag-fallback
// ordering.
var rules = []rule{
	{
		// Long-distance route relations (GR, HRP and friends).
		name: "relation routes",
		apply: func(in input) (Decision, bool) {
			isRoute := in.segType == "relation" ||
				strings.Contains(in.relRef, "GR") || strings.Contains(in.relRef, "HRP")
			if !isRoute {
				return Decision{}, false
			}
			if in.relRoute == "bicycle" || in.relRoute == "mtb" {
				return Decision{
					Category: types.PathBicycleRoutes,
					Style:    types.Style{Color: "#f97316", Weight: 4 * in.scale, Opacity: 0.9, Render: types.RenderPolyline},
				}, true
			}
			return Decision{
				Category: types.PathHikingRoutes,
				Style:    types.Style{Color: "#a855f7", Weight: 4 * in.scale, Opacity: 0.9, Render: types.RenderPolyline},
			}, true
		},
	},
	{
		name: "via ferrata / climbing",
		apply: func(in input) (Decision, bool) {
			if in.tags["highway"] != "via_ferrata" &&
				in.tags["sport"] != "via_ferrata" && in.tags["sport"] != "climbing" &&
				in.segType != "via_ferrata" {
				return Decision{}, false
			}
			return Decision{
				Category: types.PathViaFerrata,
				Style:    types.Style{Color: "#57534e", Weight: 2.5 * in.scale, Opacity: 1, DashArray: "2, 5", Render: types.RenderPolyline},
			}, true
		},
	},
	{
		name: "hiking difficulty",
		apply: func(in input) (Decision, bool) {
			sac, ok := in.tags["sac_scale"]
			if !ok {
				return Decision{}, false
			}
			switch sac {
			case "hiking":
				return Decision{
					Category: types.PathHikingEasy,
					Style:    types.Style{Color: "#facc15", Weight: 3 * in.scale, Opacity: 0.9, Render: types.RenderPolyline},
				}, true
			case "mountain_hiking", "demanding_mountain_hiking":
				return Decision{
					Category: types.PathHikingMedium,
					Style:    types.Style{Color: "#ef4444", Weight: 3 * in.scale, Opacity: 0.9, Render: types.RenderPolyline},
				}, true
			}
			// Alpine grades and anything unrecognized count as hard.
			return Decision{
				Category: types.PathHikingHard,
				Style:    types.Style{Color: "#000000", Weight: 3 * in.scale, Opacity: 0.9, Render: types.RenderPolyline},
			}, true
		},
	},
	{
		name: "structure type",
		apply: func(in input) (Decision, bool) {
			switch {
			case aerialwayTypes[in.segType]:
				return Decision{Category: types.PathAerialways, Style: aerialwayStyle(in.scale)}, true
			case pisteTypes[in.segType]:
				return Decision{Category: types.PathPistes, Style: pisteStyle(in.tags, in.scale)}, true
			case railTypes[in.segType]:
				return Decision{Category: types.PathRailways, Style: railwayStyle(in.scale)}, true
			}

			switch in.segType {
			case "motorway", "trunk", "primary":
				return Decision{
					Category: types.PathOthers,
					Style:    types.Style{Color: "#f59e0b", Weight: 4 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
				}, true
			case "secondary", "tertiary":
				return Decision{
					Category: types.PathOthers,
					Style:    types.Style{Color: "#ffffff", Weight: 3 * in.scale, Opacity: 0.6, Render: types.RenderPolyline},
				}, true
			case "residential", "unclassified", "service":
				return Decision{
					Category: types.PathOthers,
					Style:    types.Style{Color: "#cbd5e1", Weight: 2 * in.scale, Opacity: 0.5, Render: types.RenderPolyline},
				}, true
			case "cycleway":
				return Decision{
					Category: types.PathCycleways,
					Style:    types.Style{Color: "#3b82f6", Weight: 2 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
				}, true
			case "track":
				return Decision{
					Category: types.PathTracks,
					Style:    types.Style{Color: "#854d0e", Weight: 1.5 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
				}, true
			case "bridleway":
				return Decision{
					Category: types.PathBridleways,
					Style:    types.Style{Color: "#d97706", Weight: 1.5 * in.scale, Opacity: 0.8, DashArray: "5, 5", Render: types.RenderPolyline},
				}, true
			case "steps":
				return Decision{
					Category: types.PathOthers,
					Style:    types.Style{Color: "#94a3b8", Weight: 2 * in.scale, Opacity: 0.8, DashArray: "2, 2", Render: types.RenderPolyline},
				}, true
			case "corridor", "platform":
				// Walkable but indoor-ish: emerald like paths, filtered as others.
				return Decision{
					Category: types.PathOthers,
					Style:    types.Style{Color: "#059669", Weight: 1.5 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
				}, true
			case "path", "footway", "pedestrian", "living_street":
				return Decision{
					Category: types.PathPaths,
					Style:    types.Style{Color: "#059669", Weight: 1.5 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
				}, true
			}
			return Decision{}, false
		},
	},
	{
		name: "tag fallback",
		apply: func(in input) (Decision, bool) {
			switch {
			case in.tags["railway"] != "":
				return Decision{Category: types.PathRailways, Style: railwayStyle(in.scale)}, true
			case in.tags["aerialway"] != "":
				return Decision{Category: types.PathAerialways, Style: aerialwayStyle(in.scale)}, true
			case in.tags["piste:type"] != "":
				return Decision{
					Category: types.PathPistes,
					Style:    types.Style{Color: "#0ea5e9", Weight: 3 * in.scale, Opacity: 0.7, Render: types.RenderPolyline},
				}, true
			}

			if in.tags["waterway"] != "" || standingWater(in.tags) {
				if standingWater(in.tags) {
					// Filled polygon; line weight fixed, never scaled.
					return Decision{
						Category: types.PathWaterways,
						Style: types.Style{
							Color: "#0ea5e9", Weight: 1, Opacity: 0.6,
							FillColor: "#0ea5e9", FillOpacity: 0.3,
							Render: types.RenderPolygon,
						},
					}, true
				}
				switch in.tags["waterway"] {
				case "river":
					return Decision{
						Category: types.PathWaterways,
						Style:    types.Style{Color: "#06b6d4", Weight: 4 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
					}, true
				case "stream":
					return Decision{
						Category: types.PathWaterways,
						Style:    types.Style{Color: "#06b6d4", Weight: 2 * in.scale, Opacity: 0.7, DashArray: "2, 3", Render: types.RenderPolyline},
					}, true
				case "canal":
					return Decision{
						Category: types.PathWaterways,
						Style:    types.Style{Color: "#0891b2", Weight: 3 * in.scale, Opacity: 0.8, Render: types.RenderPolyline},
					}, true
				}
				return Decision{
					Category: types.PathWaterways,
					Style:    types.Style{Color: "#06b6d4", Weight: 3 * in.scale, Opacity: 0.6, Render: types.RenderPolyline},
				}, true
			}
			return Decision{}, false
		},
	},
}

// Resolve maps a segment description to its category and style. It never
// fails: nil tags are treated as empty, and segments matching no rule get
// the default slate style under the others category.
func Resolve(segType string, tags types.Tags, relRef, relRoute string, weightScale float64) Decision {
	if tags == nil {
		tags = types.Tags{}
	}
	if weightScale <= 0 {
		weightScale = 1
	}
	in := input{segType: segType, tags: tags, relRef: relRef, relRoute: relRoute, scale: weightScale}

	for _, r := range rules {
		if d, ok := r.apply(in); ok {
			d.Style.Render = renderKind(tags)
			return d
		}
	}
	return Decision{
		Category: types.PathOthers,
		Style:    types.Style{Color: "#64748b", Weight: 0.5 * weightScale, Opacity: 0.5, Render: renderKind(tags)},
	}
}

// renderKind picks polygon rendering for standing water, polyline otherwise.
func renderKind(tags types.Tags) types.RenderKind {
	if standingWater(tags) {
		return types.RenderPolygon
	}
	return types.RenderPolyline
}

// CategoryOf returns the path category of a segment. It is the category
// projection of Resolve.
func CategoryOf(segType string, tags types.Tags, relRef, relRoute string) types.PathCategory {
	return Resolve(segType, tags, relRef, relRoute, 1).Category
}

// StyleOf returns the render style of a segment at the given weight
// multiplier. It is the style projection of Resolve.
func StyleOf(segType string, tags types.Tags, relRef, relRoute string, weightScale float64) types.Style {
	return Resolve(segType, tags, relRef, relRoute, weightScale).Style
}

// ResolveSegment attaches the resolved category and style to a segment.
func ResolveSegment(seg types.NetworkSegment, weightScale float64) types.StyledSegment {
	d := Resolve(seg.Type, seg.Tags, seg.RelationRef, seg.RelationRoute, weightScale)
	return types.StyledSegment{NetworkSegment: seg, Category: d.Category, Style: d.Style}
}
