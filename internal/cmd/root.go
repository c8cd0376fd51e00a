package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "randoscope",
	Short: "Outdoor map selection service for POIs and path networks",
	Long: `Randoscope serves classified points of interest and styled path networks
for arbitrary map selections, backed by Overpass and the French
administrative geo APIs.

Selections can be freehand polygons or administrative presets (parks,
regions, departements, communes); administrative selections also expose
their neighboring zones for one-click re-selection.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("overpass-endpoint", "", "Overpass API endpoint (default: overpass-api.de)")
	rootCmd.PersistentFlags().String("cache-path", "randoscope.db", "Path to the preset cache database")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("overpass_endpoint", "overpass-endpoint")
	mustBind("cache_path", "cache-path")
	mustBind("verbose", "verbose")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("RANDOSCOPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
