package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-next-tasks/backend/internal/config"
	"go-next-tasks/backend/internal/database"
	"go-next-tasks/backend/internal/logging"
	"go-next-tasks/backend/internal/metrics"
	"go-next-tasks/backend/internal/routes"
)

// コマンドラインフラグ (環境変数より優先)
var (
	portFlag   string
	dbPathFlag string
	envFile    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "go-next-tasks",
		Short:        "Task management REST API backed by a local SQLite file",
		SilenceUsage: true,
		// サブコマンドなしで起動した場合は serve と同じ
		RunE: runServe,
	}
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "path to the SQLite database file (overrides DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	rootCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the tasks table if it does not exist",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

// loadConfig は設定を読み込み、フラグで上書きします。
func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if dbPathFlag != "" {
		cfg.DatabasePath = dbPathFlag
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cmd.Context(), cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	log.WithField("database", cfg.DatabasePath).Info("Migration complete")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("Failed to close database")
			return
		}
		log.Info("Database connection closed")
	}()
	log.WithField("database", cfg.DatabasePath).Info("Successfully connected to SQLite database!")

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	router := routes.SetupRouter(db, cfg, log, m)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.WithFields(logrus.Fields{"addr": srv.Addr}).Info("Server stopped")
	return nil
}
