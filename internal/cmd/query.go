package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randoscope/randoscope/internal/classify"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/pipeline"
	"github.com/randoscope/randoscope/internal/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a one-shot selection and print the result as JSON",
	Long: `Query fetches POIs and network segments for a rectangular bounding box
and prints the classified, styled result to stdout. Useful for inspecting
what a selection would return without running the server.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().String("bbox", "", "Bounding box as minLat,minLon,maxLat,maxLon (required)")
	queryCmd.Flags().StringSlice("categories", nil, "POI categories to fetch (default: all)")
	queryCmd.Flags().StringSlice("exclude-types", nil, "POI types to drop from the result")
	queryCmd.Flags().StringSlice("path-categories", nil, "Path categories to keep (default: all)")
	queryCmd.Flags().Float64("weight-scale", 1.0, "Stroke weight multiplier for network styles")

	_ = queryCmd.MarkFlagRequired("bbox")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bbox, err := cmd.Flags().GetString("bbox")
	if err != nil {
		return err
	}
	area, err := parseBBox(bbox)
	if err != nil {
		return err
	}

	categories, _ := cmd.Flags().GetStringSlice("categories")
	excludeTypes, _ := cmd.Flags().GetStringSlice("exclude-types")
	pathCategories, _ := cmd.Flags().GetStringSlice("path-categories")
	weightScale, _ := cmd.Flags().GetFloat64("weight-scale")

	filter := types.CategoryFilter{
		Categories:     categories,
		ExcludedTypes:  excludeTypes,
		PathCategories: pathCategories,
	}

	ds := datasource.NewOverpassDataSource(viper.GetString("overpass_endpoint"))
	pipe := pipeline.New(ds, logger, pipeline.WithWeightScale(weightScale))

	snapshot, err := pipe.Select(cmd.Context(), area, filter, nil)
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	pois := snapshot.FilteredPOIs(filter)
	segments := snapshot.VisibleSegments(filter)

	logger.Info("selection complete",
		"pois", len(pois),
		"segments", len(segments),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		POIs     []types.POI             `json:"pois"`
		Segments []types.StyledSegment   `json:"segments"`
		Stats    []classify.CategoryStat `json:"stats"`
	}{pois, segments, snapshot.Stats})
}

func parseBBox(raw string) (types.AreaSelection, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return types.AreaSelection{}, fmt.Errorf("bbox must be minLat,minLon,maxLat,maxLon")
	}
	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return types.AreaSelection{}, fmt.Errorf("invalid bbox value %q", f)
		}
		vals[i] = v
	}
	return types.RectSelection(
		types.Point{Lat: vals[0], Lng: vals[1]},
		types.Point{Lat: vals[2], Lng: vals[3]},
	), nil
}
