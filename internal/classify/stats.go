package classify

import (
	"sort"

	"github.com/randoscope/randoscope/internal/types"
)

// TypeCount is one sub-category leaf of the category statistics.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CategoryStat aggregates one top-level category for the treemap view.
type CategoryStat struct {
	Category types.Category `json:"category"`
	Color    string         `json:"color"`
	Count    int            `json:"count"`
	Types    []TypeCount    `json:"types"`
}

// Stats aggregates POIs into per-category, per-type counts for the
// hierarchical treemap. Categories and types are sorted by descending count,
// ties broken by name so output is deterministic.
func Stats(pois []types.POI) []CategoryStat {
	byCat := make(map[types.Category]map[string]int)
	for _, p := range pois {
		if p.Category == types.CategoryUnknown {
			continue
		}
		if byCat[p.Category] == nil {
			byCat[p.Category] = make(map[string]int)
		}
		byCat[p.Category][p.Type]++
	}

	stats := make([]CategoryStat, 0, len(byCat))
	for cat, byType := range byCat {
		stat := CategoryStat{
			Category: cat,
			Color:    CategoryColor(cat),
			Types:    make([]TypeCount, 0, len(byType)),
		}
		for typ, n := range byType {
			stat.Types = append(stat.Types, TypeCount{Type: typ, Count: n})
			stat.Count += n
		}
		sort.Slice(stat.Types, func(i, j int) bool {
			if stat.Types[i].Count != stat.Types[j].Count {
				return stat.Types[i].Count > stat.Types[j].Count
			}
			return stat.Types[i].Type < stat.Types[j].Type
		})
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})
	return stats
}
