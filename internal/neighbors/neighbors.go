// Package neighbors resolves the zones adjoining an administrative
// selection so they can be offered for one-click re-selection.
package neighbors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randoscope/randoscope/internal/types"
)

// CommuneLister lists a departement's communes, implemented by
// presets.CommuneIndex.
type CommuneLister interface {
	ByDepartement(ctx context.Context, deptCode string) ([]types.Commune, error)
}

// CatalogSource serves the admin catalogs, implemented by presets.Catalog.
type CatalogSource interface {
	Regions(ctx context.Context) ([]types.Preset, error)
	Departements(ctx context.Context) ([]types.Preset, error)
}

// Loader resolves neighbor zones.
//
// Commune neighbors are the other communes of the same departement;
// departement and region neighbors are their catalog siblings. All are
// narrowed to the visible bounds, since offering a neighbor the user cannot
// see is noise.
type Loader struct {
	communes CommuneLister
	catalog  CatalogSource
	logger   *slog.Logger
}

// NewLoader creates a neighbor loader.
func NewLoader(communes CommuneLister, catalog CatalogSource, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{communes: communes, catalog: catalog, logger: logger}
}

// Load returns the neighbors of zone visible within bounds. A nil zone
// (freehand draw, park preset) has no administrative neighbors and returns
// nothing without any fetch.
func (l *Loader) Load(ctx context.Context, zone *types.Zone, visible types.BoundingBox) ([]types.Neighbor, error) {
	if zone == nil {
		return nil, nil
	}

	switch zone.Kind {
	case types.ZoneCommune:
		return l.communeNeighbors(ctx, zone, visible)
	case types.ZoneDept:
		presets, err := l.catalog.Departements(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading departement neighbors: %w", err)
		}
		return siblingNeighbors(presets, types.ZoneDept, zone.Code, visible), nil
	case types.ZoneRegion:
		presets, err := l.catalog.Regions(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading region neighbors: %w", err)
		}
		return siblingNeighbors(presets, types.ZoneRegion, zone.Code, visible), nil
	}
	return nil, nil
}

func (l *Loader) communeNeighbors(ctx context.Context, zone *types.Zone, visible types.BoundingBox) ([]types.Neighbor, error) {
	deptCode := zone.DepartementCode()
	if deptCode == "" {
		l.logger.Warn("commune zone without resolvable departement", "code", zone.Code)
		return nil, nil
	}

	communes, err := l.communes.ByDepartement(ctx, deptCode)
	if err != nil {
		return nil, fmt.Errorf("loading commune neighbors: %w", err)
	}

	var neighbors []types.Neighbor
	for _, c := range communes {
		if c.Code == zone.Code {
			continue
		}
		if !c.Bounds.Intersects(visible) {
			continue
		}
		neighbors = append(neighbors, types.Neighbor{
			Kind:     types.ZoneCommune,
			Name:     c.Name,
			Code:     c.Code,
			DeptCode: c.DeptCode,
			Geometry: c.Geometry,
			Bounds:   c.Bounds,
		})
	}
	return neighbors, nil
}

func siblingNeighbors(presets []types.Preset, kind types.ZoneKind, ownCode string, visible types.BoundingBox) []types.Neighbor {
	var neighbors []types.Neighbor
	for _, p := range presets {
		if p.Ref == ownCode {
			continue
		}
		if !p.Bounds.Intersects(visible) {
			continue
		}
		neighbors = append(neighbors, types.Neighbor{
			Kind:   kind,
			Name:   p.Name,
			Code:   p.Ref,
			Bounds: p.Bounds,
		})
	}
	return neighbors
}
