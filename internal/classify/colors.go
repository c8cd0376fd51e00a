package classify

import "github.com/randoscope/randoscope/internal/types"

// fallbackColor is used for any category without an explicit entry.
const fallbackColor = "#94a3b8"

var categoryColors = map[types.Category]string{
	types.CategoryTourism:       "#fbbf24",
	types.CategorySustenance:    "#f87171",
	types.CategoryAccommodation: "#a78bfa",
	types.CategoryAmenity:       "#60a5fa",
	types.CategoryNatural:       "#34d399",
	types.CategoryHistoric:      "#d97706",
	types.CategoryLeisure:       "#f472b6",
	types.CategoryShop:          "#c084fc",
	types.CategoryTransport:     "#9ca3af",
	types.CategoryCraft:         "#e879f9",
	types.CategoryOffice:        "#64748b",
	types.CategoryEmergency:     "#ef4444",
	types.CategoryManMade:       "#78716c",
	types.CategoryPlace:         "#facc15",
	types.CategorySport:         "#14b8a6",
	types.CategoryHealthcare:    "#f43f5e",
	types.CategoryPower:         "#a8a29e",
	types.CategoryBarrier:       "#57534e",
}

// CategoryColor returns the marker color for a POI category.
func CategoryColor(c types.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return fallbackColor
}
