package presets

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/randoscope/randoscope/internal/types"
)

// communeMemoSize bounds the in-memory memo. Search-as-you-type produces
// many near-identical queries; a small LRU absorbs most of them.
const communeMemoSize = 256

// CommuneSource is the upstream commune lookup, implemented by
// datasource.GeoAPIClient.
type CommuneSource interface {
	SearchCommunes(ctx context.Context, query string) ([]types.Commune, error)
	CommunesByDepartement(ctx context.Context, deptCode string) ([]types.Commune, error)
}

// CommuneIndex memoizes commune lookups. Contours are a few hundred
// kilobytes per departement, so repeated neighbor lookups on the same zone
// should not re-download them.
type CommuneIndex struct {
	source CommuneSource
	memo   *lru.Cache[string, []types.Commune]
}

// NewCommuneIndex creates a memoizing commune index.
func NewCommuneIndex(source CommuneSource) (*CommuneIndex, error) {
	memo, err := lru.New[string, []types.Commune](communeMemoSize)
	if err != nil {
		return nil, err
	}
	return &CommuneIndex{source: source, memo: memo}, nil
}

// Search looks up communes by (partial) name. Queries shorter than 3
// characters return nothing.
func (ci *CommuneIndex) Search(ctx context.Context, query string) ([]types.Commune, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 3 {
		return nil, nil
	}

	key := "search:" + strings.ToLower(query)
	if communes, ok := ci.memo.Get(key); ok {
		return communes, nil
	}

	communes, err := ci.source.SearchCommunes(ctx, query)
	if err != nil {
		return nil, err
	}
	ci.memo.Add(key, communes)
	return communes, nil
}

// ByDepartement lists all communes of a departement.
func (ci *CommuneIndex) ByDepartement(ctx context.Context, deptCode string) ([]types.Commune, error) {
	if deptCode == "" {
		return nil, nil
	}

	key := "dept:" + deptCode
	if communes, ok := ci.memo.Get(key); ok {
		return communes, nil
	}

	communes, err := ci.source.CommunesByDepartement(ctx, deptCode)
	if err != nil {
		return nil, err
	}
	ci.memo.Add(key, communes)
	return communes, nil
}
