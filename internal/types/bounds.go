package types

import "fmt"

// BoundingBox represents a geographic bounding box in WGS84 (EPSG:4326)
type BoundingBox struct {
	MinLon float64 `json:"minLon"` // Western edge (degrees)
	MinLat float64 `json:"minLat"` // Southern edge (degrees)
	MaxLon float64 `json:"maxLon"` // Eastern edge (degrees)
	MaxLat float64 `json:"maxLat"` // Northern edge (degrees)
}

// String returns a human-readable representation of the bounding box
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(%.6f,%.6f,%.6f,%.6f)", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Width returns the width of the bounding box in degrees
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// Height returns the height of the bounding box in degrees
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Contains reports whether the point lies inside or on the edge of the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Intersects reports whether two boxes share any area.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.MinLon <= other.MaxLon && b.MaxLon >= other.MinLon &&
		b.MinLat <= other.MaxLat && b.MaxLat >= other.MinLat
}

// ExpandByFraction grows the box by the given fraction of its width/height
// on every side. A fraction of 0 returns the box unchanged.
func (b BoundingBox) ExpandByFraction(f float64) BoundingBox {
	dLon := b.Width() * f
	dLat := b.Height() * f
	return BoundingBox{
		MinLon: b.MinLon - dLon,
		MinLat: b.MinLat - dLat,
		MaxLon: b.MaxLon + dLon,
		MaxLat: b.MaxLat + dLat,
	}
}
