package datasource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/randoscope/randoscope/internal/types"
)

// PolyFilter renders a selection ring as an Overpass poly filter string:
// "lat1 lng1 lat2 lng2 ...". The ring is closed before rendering, so open
// input is accepted.
func PolyFilter(ring []types.Point) string {
	pts := ring
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		closed := make([]types.Point, len(pts), len(pts)+1)
		copy(closed, pts)
		pts = append(closed, pts[0])
	}

	var sb strings.Builder
	for i, pt := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(pt.Lat, 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(pt.Lng, 'f', -1, 64))
	}
	return sb.String()
}

// BuildSelectionQuery creates the Overpass QL query for a selection: one
// node clause covering the requested tag keys plus the way and relation
// clauses for the path network.
//
// An empty keys slice omits the node clause entirely; ways and route
// relations are still fetched so the network renders even when no POI
// category is wanted.
func BuildSelectionQuery(ring []types.Point, keys []string) string {
	poly := PolyFilter(ring)

	nodeClause := ""
	if len(keys) > 0 {
		nodeClause = fmt.Sprintf("  node[~\"^(%s)$\"~\".\"](poly:%q);\n", strings.Join(keys, "|"), poly)
	}

	return fmt.Sprintf(`[out:json][timeout:60];
(
%s  way["highway"](poly:%q);
  way["railway"](poly:%q);
  way["aerialway"](poly:%q);
  way["piste:type"](poly:%q);
  relation["route"~"hiking|foot|bicycle|mtb|ski|piste"](poly:%q);
);
out geom;
`, nodeClause, poly, poly, poly, poly, poly)
}

// BuildCollectionQuery lists the member relations of a collection relation
// (a relation whose members are park relations), with tags and bounding
// boxes only.
func BuildCollectionQuery(collectionID int64) string {
	return fmt.Sprintf(`[out:json][timeout:25];
relation(%d);
relation(r);
out tags bb;
`, collectionID)
}

// metropolitanFranceArea is the Overpass area derived from the France
// Métropolitaine relation (3600000000 + relation ID 1403916). Querying the
// area is far cheaper than a country-sized bbox.
const metropolitanFranceArea = 3601403916

// BuildAdminAreaQuery lists administrative boundary relations of the given
// admin_level inside metropolitan France. The generous timeout avoids 504s
// on this country-wide query.
func BuildAdminAreaQuery(adminLevel string) string {
	return fmt.Sprintf(`[out:json][timeout:90];
area(%d)->.searchArea;
relation["boundary"="administrative"]["admin_level"=%q]["ref:INSEE"](area.searchArea);
out tags bb;
`, metropolitanFranceArea, adminLevel)
}
