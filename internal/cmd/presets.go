package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randoscope/randoscope/internal/cachestore"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/presets"
	"github.com/randoscope/randoscope/internal/types"
)

var presetsCmd = &cobra.Command{
	Use:       "presets [parks|regions|departements]",
	Short:     "List area presets from the administrative catalogs",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"parks", "regions", "departements"},
	RunE:      runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cache, err := cachestore.Open(viper.GetString("cache_path"))
	if err != nil {
		return fmt.Errorf("failed to open preset cache: %w", err)
	}
	defer cache.Close()

	admin := datasource.NewAdminClient(viper.GetString("overpass_endpoint"), nil)
	catalog := presets.NewCatalog(admin, cache, logger)

	var load func(context.Context) ([]types.Preset, error)
	switch args[0] {
	case "parks":
		load = catalog.Parks
	case "regions":
		load = catalog.Regions
	case "departements":
		load = catalog.Departements
	default:
		return fmt.Errorf("unknown catalog: %s", args[0])
	}

	list, err := load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
