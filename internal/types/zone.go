package types

import "github.com/paulmach/orb/geojson"

// ZoneKind is the kind of administrative unit backing a selection.
type ZoneKind string

const (
	ZoneCommune ZoneKind = "commune"
	ZoneDept    ZoneKind = "dept"
	ZoneRegion  ZoneKind = "region"
)

// Zone is the administrative context attached to a selection when it
// originates from an administrative-boundary preset. It drives neighbor-zone
// lookups only; freehand draws and non-administrative presets carry none.
type Zone struct {
	Kind     ZoneKind `json:"kind"`
	Code     string   `json:"code"`
	DeptCode string   `json:"deptCode,omitempty"`
	Name     string   `json:"name"`
}

// DepartementCode resolves the containing department: the explicit code if
// present, otherwise the first two characters of the INSEE code.
func (z Zone) DepartementCode() string {
	if z.DeptCode != "" {
		return z.DeptCode
	}
	if len(z.Code) >= 2 {
		return z.Code[:2]
	}
	return ""
}

// Preset is a selectable area preset: a park (relation-backed) or an
// administrative unit (INSEE-ref-backed).
type Preset struct {
	Name       string      `json:"name"`
	Ref        string      `json:"ref,omitempty"`
	RelationID int64       `json:"relationId,omitempty"`
	AdminType  ZoneKind    `json:"adminType,omitempty"`
	Bounds     BoundingBox `json:"bounds"`
}

// Commune is a commune search result with its polygon contour.
type Commune struct {
	Name     string            `json:"name"`
	FullName string            `json:"fullName,omitempty"`
	Code     string            `json:"code"`
	DeptCode string            `json:"deptCode,omitempty"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Bounds   BoundingBox       `json:"bounds"`
	Lat      float64           `json:"lat"`
	Lng      float64           `json:"lng"`
}

// Neighbor is an adjoining zone offered for one-click re-selection.
type Neighbor struct {
	Kind     ZoneKind          `json:"kind"`
	Name     string            `json:"name"`
	Code     string            `json:"code"`
	DeptCode string            `json:"deptCode,omitempty"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Bounds   BoundingBox       `json:"bounds"`
}
