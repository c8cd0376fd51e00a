package types

// Tags is the free-form OSM key/value annotation set of an element.
// Absence of a key is semantically distinct from an empty value.
type Tags = map[string]string

// Category is a top-level POI category.
type Category string

// The fixed POI categories. CategoryUnknown marks elements with no matching
// classification rule; such elements never reach the rendered working set.
const (
	CategoryTourism       Category = "tourism"
	CategorySustenance    Category = "sustenance"
	CategoryAccommodation Category = "accommodation"
	CategoryLeisure       Category = "leisure"
	CategorySport         Category = "sport"
	CategoryHistoric      Category = "historic"
	CategoryNatural       Category = "natural"
	CategoryShop          Category = "shop"
	CategoryAmenity       Category = "amenity"
	CategoryTransport     Category = "transport"
	CategoryHealthcare    Category = "healthcare"
	CategoryEmergency     Category = "emergency"
	CategoryOffice        Category = "office"
	CategoryCraft         Category = "craft"
	CategoryManMade       Category = "man_made"
	CategoryPower         Category = "power"
	CategoryBarrier       Category = "barrier"
	CategoryPlace         Category = "place"
	CategoryUnknown       Category = "unknown"
)

// Categories lists all selectable top-level categories, in the order the
// classification rules consult them.
var Categories = []Category{
	CategoryTourism,
	CategorySustenance,
	CategoryAccommodation,
	CategoryLeisure,
	CategorySport,
	CategoryHistoric,
	CategoryNatural,
	CategoryShop,
	CategoryAmenity,
	CategoryTransport,
	CategoryHealthcare,
	CategoryEmergency,
	CategoryOffice,
	CategoryCraft,
	CategoryManMade,
	CategoryPower,
	CategoryBarrier,
	CategoryPlace,
}

// POI is a classified point-of-interest derived from a tagged node.
type POI struct {
	ID       int64    `json:"id"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Type     string   `json:"type"`
	Tags     Tags     `json:"tags"`
}
