package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/shelfwright/internal/core/api"
	"github.com/solatis/shelfwright/internal/core/auth"
	"github.com/solatis/shelfwright/internal/core/config"
	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/solatis/shelfwright/internal/core/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC configurator service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, eng, err := loadEngine()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}

	if err := requireDBURL(); err != nil {
		return err
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, st := range statuses {
		if !st.Applied {
			return fmt.Errorf("migration %s not applied - run 'shelfwright migrate up' first", st.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set SW_HMAC_SECRET environment variable)")
	}

	service, err := api.NewService(eng, db.NewStore(queries), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	go service.RunJanitor(ctx, time.Minute)

	metrics := server.NewMetrics(service.SessionCount)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, auth.NewAuthenticator(secrets, queries), metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting shelfwright configurator", "version", Version, "addr", cfg.Addr())
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}
