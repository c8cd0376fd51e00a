package types

// PathCategory is a network path category used for client-side filtering.
type PathCategory string

const (
	PathHikingRoutes  PathCategory = "hiking_routes"
	PathBicycleRoutes PathCategory = "bicycle_routes"
	PathViaFerrata    PathCategory = "via_ferrata"
	PathHikingEasy    PathCategory = "hiking_easy"
	PathHikingMedium  PathCategory = "hiking_medium"
	PathHikingHard    PathCategory = "hiking_hard"
	PathCycleways     PathCategory = "cycleways"
	PathTracks        PathCategory = "tracks"
	PathBridleways    PathCategory = "bridleways"
	PathPaths         PathCategory = "paths"
	PathAerialways    PathCategory = "aerialways"
	PathPistes        PathCategory = "pistes"
	PathRailways      PathCategory = "railways"
	PathWaterways     PathCategory = "waterways"
	PathOthers        PathCategory = "others"
)

// RenderKind distinguishes how a segment's geometry is drawn.
type RenderKind string

const (
	RenderPolyline RenderKind = "polyline"
	RenderPolygon  RenderKind = "polygon"
)

// Style is the render style of a network segment.
type Style struct {
	Color       string     `json:"color"`
	Weight      float64    `json:"weight"`
	Opacity     float64    `json:"opacity"`
	DashArray   string     `json:"dashArray,omitempty"`
	FillColor   string     `json:"fillColor,omitempty"`
	FillOpacity float64    `json:"fillOpacity,omitempty"`
	Render      RenderKind `json:"render"`
}

// NetworkSegment is a linear feature (path, road, rail, lift, piste,
// waterway) derived from a way or a route-relation member way. A relation
// contributes one segment per member way, each carrying the relation's tags.
type NetworkSegment struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	RelationName  string  `json:"relationName,omitempty"`
	RelationRef   string  `json:"relationRef,omitempty"`
	RelationRoute string  `json:"relationRoute,omitempty"`
	Tags          Tags    `json:"tags"`
	Geometry      []Point `json:"geometry"`
}

// StyledSegment pairs a segment with its resolved category and style.
type StyledSegment struct {
	NetworkSegment
	Category PathCategory `json:"category"`
	Style    Style        `json:"style"`
}
