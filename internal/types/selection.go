package types

import "errors"

// ErrEmptySelection is returned when a selection normalizes to zero points.
// Such selections must be rejected before any query is issued.
var ErrEmptySelection = errors.New("selection contains no points")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AreaSelection is the active region of interest: an ordered ring of
// coordinates. A valid ring is closed (first point == last point); Normalize
// closes an open ring before use.
type AreaSelection struct {
	Ring []Point `json:"ring"`
}

// RectSelection expands two corner points into a closed rectangular ring.
func RectSelection(a, b Point) AreaSelection {
	minLat, maxLat := a.Lat, b.Lat
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}
	minLng, maxLng := a.Lng, b.Lng
	if minLng > maxLng {
		minLng, maxLng = maxLng, minLng
	}
	return AreaSelection{Ring: []Point{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: maxLng},
		{Lat: maxLat, Lng: maxLng},
		{Lat: maxLat, Lng: minLng},
		{Lat: minLat, Lng: minLng},
	}}
}

// Normalize returns a closed copy of the selection ring. Normalizing an
// already-closed ring is a no-op; normalizing an open ring appends exactly
// one point equal to the first. An empty ring yields ErrEmptySelection.
func (s AreaSelection) Normalize() (AreaSelection, error) {
	if len(s.Ring) == 0 {
		return AreaSelection{}, ErrEmptySelection
	}

	ring := make([]Point, len(s.Ring), len(s.Ring)+1)
	copy(ring, s.Ring)

	first, last := ring[0], ring[len(ring)-1]
	if first.Lat != last.Lat || first.Lng != last.Lng {
		ring = append(ring, first)
	}
	return AreaSelection{Ring: ring}, nil
}

// Bounds returns the bounding box of the ring.
func (s AreaSelection) Bounds() BoundingBox {
	if len(s.Ring) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{
		MinLat: s.Ring[0].Lat, MaxLat: s.Ring[0].Lat,
		MinLon: s.Ring[0].Lng, MaxLon: s.Ring[0].Lng,
	}
	for _, p := range s.Ring[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Lng < b.MinLon {
			b.MinLon = p.Lng
		}
		if p.Lng > b.MaxLon {
			b.MaxLon = p.Lng
		}
	}
	return b
}
