// Package classify maps raw OSM tag sets to POI categories.
package classify

import (
	"strings"

	"github.com/randoscope/randoscope/internal/types"
)

// Result is the outcome of classifying a tag set.
type Result struct {
	Category types.Category
	Type     string
}

// Unknown is the result for tag sets no rule matches. POIs classified as
// unknown are dropped from the working set.
var Unknown = Result{Category: types.CategoryUnknown, Type: "unknown"}

// rule is one predicate→result pair. Rules are evaluated in declaration
// order; the first match wins.
type rule struct {
	name  string
	apply func(tags types.Tags) (Result, bool)
}

// keyRule matches when the key is present and uses its value as the type.
func keyRule(key string, category types.Category) rule {
	return rule{
		name: key,
		apply: func(tags types.Tags) (Result, bool) {
			v, ok := tags[key]
			if !ok || v == "" {
				return Result{}, false
			}
			return Result{Category: category, Type: v}, true
		},
	}
}

var sustenanceAmenities = map[string]bool{
	"restaurant": true, "cafe": true, "bar": true,
	"pub": true, "fast_food": true, "ice_cream": true,
}

var accommodationAmenities = map[string]bool{
	"shelter": true, "hotel": true, "guest_house": true,
	"hostel": true, "camp_site": true, "apartment": true,
}

var healthcareAmenities = map[string]bool{
	"clinic": true, "hospital": true, "doctors": true, "pharmacy": true,
}

var placeValues = map[string]bool{
	"village": true, "hamlet": true, "city": true, "town": true, "locality": true,
}

// rules is the ordered classification table. Order is the priority: the
// first rule whose key matches decides the category.
var rules = []rule{
	keyRule("tourism", types.CategoryTourism),
	keyRule("historic", types.CategoryHistoric),
	keyRule("natural", types.CategoryNatural),
	keyRule("leisure", types.CategoryLeisure),
	keyRule("shop", types.CategoryShop),
	keyRule("craft", types.CategoryCraft),
	keyRule("office", types.CategoryOffice),
	keyRule("healthcare", types.CategoryHealthcare),
	keyRule("emergency", types.CategoryEmergency),
	keyRule("man_made", types.CategoryManMade),
	keyRule("power", types.CategoryPower),
	keyRule("barrier", types.CategoryBarrier),
	{
		// Presence of the tag is enough, whatever its value.
		name: "mountain_pass",
		apply: func(tags types.Tags) (Result, bool) {
			if _, ok := tags["mountain_pass"]; !ok {
				return Result{}, false
			}
			return Result{Category: types.CategoryNatural, Type: "mountain_pass"}, true
		},
	},
	{
		name: "transport",
		apply: func(tags types.Tags) (Result, bool) {
			railway, hasRailway := tags["railway"]
			pt, hasPT := tags["public_transport"]
			if !hasRailway && !hasPT {
				return Result{}, false
			}
			t := railway
			if t == "" {
				t = pt
			}
			return Result{Category: types.CategoryTransport, Type: t}, true
		},
	},
	{
		name: "amenity",
		apply: func(tags types.Tags) (Result, bool) {
			v, ok := tags["amenity"]
			if !ok || v == "" {
				return Result{}, false
			}
			switch {
			case sustenanceAmenities[v]:
				return Result{Category: types.CategorySustenance, Type: v}, true
			case accommodationAmenities[v]:
				return Result{Category: types.CategoryAccommodation, Type: v}, true
			case healthcareAmenities[v]:
				return Result{Category: types.CategoryHealthcare, Type: v}, true
			}
			return Result{Category: types.CategoryAmenity, Type: v}, true
		},
	},
	keyRule("sport", types.CategorySport),
	{
		name: "place",
		apply: func(tags types.Tags) (Result, bool) {
			v := tags["place"]
			if !placeValues[v] {
				return Result{}, false
			}
			return Result{Category: types.CategoryPlace, Type: v}, true
		},
	},
}

// Classify maps a tag set to a (category, type) pair. It is pure and total:
// every input reaches exactly one rule or falls through to Unknown.
func Classify(tags types.Tags) Result {
	if tags == nil {
		return Unknown
	}
	for _, r := range rules {
		if res, ok := r.apply(tags); ok {
			return res
		}
	}
	return Unknown
}

// DisplayName resolves a POI display name: the name tag when present,
// otherwise the humanized type.
func DisplayName(tags types.Tags, typ string) string {
	if n := tags["name"]; n != "" {
		return n
	}
	if typ != "" && typ != "unknown" {
		return strings.ReplaceAll(typ, "_", " ")
	}
	return "unnamed"
}
