package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/domainpulse/registrar-sync/internal/api"
	v0 "github.com/domainpulse/registrar-sync/internal/api/v0"
	"github.com/domainpulse/registrar-sync/internal/cache"
	"github.com/domainpulse/registrar-sync/internal/config"
	"github.com/domainpulse/registrar-sync/internal/db"
	"github.com/domainpulse/registrar-sync/internal/logger"
	"github.com/domainpulse/registrar-sync/internal/registrar"
	"github.com/domainpulse/registrar-sync/internal/store"
	"github.com/domainpulse/registrar-sync/internal/sync"
	"github.com/domainpulse/registrar-sync/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync API server",
	Long: `Start the sync API server.

The server requires a configuration file (--config) that specifies:
- Database connection parameters
- Response cache location and TTLs
- Upstream API fallback behavior

See examples/ directory for a sample configuration.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	// A sync batch calls the upstream API synchronously, once per domain
	// plus the listing, so requests are allowed to run long
	serverRequestTimeout = 5 * time.Minute
	serverReadTimeout    = 10 * time.Second
	// Must be > serverRequestTimeout to let the timeout middleware answer
	serverWriteTimeout = serverRequestTimeout + 30*time.Second
	serverIdleTimeout  = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

// nameserverCandidates converts the configured fallback chain into the
// adapter's strategy list
func nameserverCandidates(cfg *config.UpstreamConfig) []registrar.FallbackCandidate {
	if cfg == nil {
		return nil
	}
	candidates := make([]registrar.FallbackCandidate, 0, len(cfg.NameserverCandidates))
	for _, c := range cfg.NameserverCandidates {
		candidates = append(candidates, registrar.FallbackCandidate{
			Action: c.Action,
			Param:  registrar.ParamKind(c.Param),
		})
	}
	return candidates
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	logger.Initialize(viper.GetBool("debug"))

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.Server.GetAddress()
	}

	logger.Infof("Starting sync API server on %s", address)

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	responseCache, err := cache.NewFileCache(cfg.Cache.GetDir())
	if err != nil {
		return fmt.Errorf("failed to initialize response cache: %w", err)
	}
	logger.Infof("Response cache at %s (listing TTL %s, nameserver TTL %s)",
		cfg.Cache.GetDir(), cfg.Cache.GetListingTTL(), cfg.Cache.GetNameserverTTL())

	cachingClient := cache.NewCachingClient(
		registrar.NewClient(),
		responseCache,
		cache.DefaultTTLPolicy(cfg.Cache.GetListingTTL(), cfg.Cache.GetNameserverTTL()),
	)

	var apiOpts []registrar.APIOption
	if candidates := nameserverCandidates(cfg.Upstream); len(candidates) > 0 {
		apiOpts = append(apiOpts, registrar.WithNameserverCandidates(candidates))
	}
	upstream := registrar.NewAPI(cachingClient, apiOpts...)

	dbStore := store.NewDBStore(conn.Pool)
	orchestrator := sync.NewOrchestrator(
		vault.NewDBVault(conn.Pool),
		upstream,
		dbStore,
		sync.WithEnrichmentConcurrency(cfg.Sync.GetEnrichmentConcurrency()),
	)

	router := api.NewServer(v0.Deps{
		Sync:             orchestrator,
		Domains:          dbStore,
		Cache:            responseCache,
		Readiness:        conn.Ping,
		DefaultBatchSize: cfg.Sync.GetDefaultBatchSize(),
	},
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
