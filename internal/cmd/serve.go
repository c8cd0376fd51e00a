package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randoscope/randoscope/internal/cachestore"
	"github.com/randoscope/randoscope/internal/datasource"
	"github.com/randoscope/randoscope/internal/monitoring"
	"github.com/randoscope/randoscope/internal/neighbors"
	"github.com/randoscope/randoscope/internal/pipeline"
	"github.com/randoscope/randoscope/internal/presets"
	"github.com/randoscope/randoscope/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the selection API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("fetch-workers", 2, "Concurrent Overpass fetch workers")
	serveCmd.Flags().Float64("weight-scale", 1.0, "Stroke weight multiplier for network styles")
	serveCmd.Flags().String("geoapi-url", datasource.DefaultGeoAPIBaseURL, "Base URL of the communes geo API")
	serveCmd.Flags().String("boundary-url", datasource.DefaultBoundaryBaseURL, "Base URL of the boundary polygon service")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("serve.addr", "addr")
	mustBind("serve.fetch_workers", "fetch-workers")
	mustBind("serve.weight_scale", "weight-scale")
	mustBind("serve.geoapi_url", "geoapi-url")
	mustBind("serve.boundary_url", "boundary-url")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	endpoint := viper.GetString("overpass_endpoint")
	cachePath := viper.GetString("cache_path")
	workers := viper.GetInt("serve.fetch_workers")
	weightScale := viper.GetFloat64("serve.weight_scale")

	cache, err := cachestore.Open(cachePath)
	if err != nil {
		return fmt.Errorf("failed to open preset cache: %w", err)
	}
	defer cache.Close()

	ds := datasource.NewOverpassDataSource(endpoint)
	queue := datasource.NewFetchQueue(ds, datasource.FetchQueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	queue.Start()
	defer queue.Stop()

	admin := datasource.NewAdminClient(endpoint, nil)
	catalog := presets.NewCatalog(admin, cache, logger)

	geoapi := datasource.NewGeoAPIClient(viper.GetString("serve.geoapi_url"), nil)
	communes, err := presets.NewCommuneIndex(geoapi)
	if err != nil {
		return fmt.Errorf("failed to build commune index: %w", err)
	}

	boundary := datasource.NewBoundaryClient(viper.GetString("serve.boundary_url"), nil)

	pipe := pipeline.New(queue, logger, pipeline.WithWeightScale(weightScale))
	loader := neighbors.NewLoader(communes, catalog, logger)

	srv := server.New(server.Deps{
		Pipeline:  pipe,
		Catalog:   catalog,
		Communes:  communes,
		Neighbors: loader,
		Boundary:  boundary,
		Metrics:   monitoring.New(),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("selection API listening",
		"addr", addr,
		"cache_path", cachePath,
		"fetch_workers", workers,
	)
	return srv.Run(ctx, addr)
}
