package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/solatis/shelfwright/internal/catalog"
	"github.com/solatis/shelfwright/internal/core/config"
	"github.com/solatis/shelfwright/internal/core/logging"
	"github.com/solatis/shelfwright/internal/engine"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "shelfwright",
	Short:         "Modular shelving configurator",
	Long:          `Shelfwright designs rod-and-plate shelving: it validates every edit against the SKU catalog and suggests the next plates and rods to place.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel, logFormat, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadEngine reads the config file and builds an engine over the
// configured catalog.
func loadEngine() (*config.ConfiguratorConfig, *engine.Engine, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cfg, engine.New(cat), nil
}

func requireDBURL() error {
	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	return nil
}
