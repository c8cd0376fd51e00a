package types

// FilterNone is the sentinel category meaning "no POI categories selected".
// With it, the pipeline skips the POI portion of the query but still
// requests network data.
const FilterNone = "none"

// CategoryFilter is the active filter state. Selected categories drive the
// query key set; excluded sub-category types and path categories are
// client-side refinements that never re-trigger a fetch.
type CategoryFilter struct {
	Categories     []string `json:"categories,omitempty"`
	ExcludedTypes  []string `json:"excludedTypes,omitempty"`
	PathCategories []string `json:"pathCategories,omitempty"`
}

// IsNone reports whether the filter reduces to the single `none` sentinel.
func (f CategoryFilter) IsNone() bool {
	return len(f.Categories) == 1 && f.Categories[0] == FilterNone
}

// AllowsCategory reports whether a POI category passes the top-level filter.
// An empty selection means "all".
func (f CategoryFilter) AllowsCategory(c Category) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, sel := range f.Categories {
		if sel == string(c) {
			return true
		}
	}
	return false
}

// ExcludesType reports whether a sub-category type-string is excluded.
func (f CategoryFilter) ExcludesType(t string) bool {
	for _, ex := range f.ExcludedTypes {
		if ex == t {
			return true
		}
	}
	return false
}

// AllowsPathCategory reports whether a path category is visible. An empty
// selection, or one containing "all", shows everything.
func (f CategoryFilter) AllowsPathCategory(c PathCategory) bool {
	if len(f.PathCategories) == 0 {
		return true
	}
	for _, sel := range f.PathCategories {
		if sel == "all" || sel == string(c) {
			return true
		}
	}
	return false
}
