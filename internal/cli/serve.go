package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"codesage/api/internal/config"
	"codesage/api/internal/db"
	"codesage/api/internal/generation"
	internalhttp "codesage/api/internal/http"
	"codesage/api/internal/logging"
	"codesage/api/internal/metrics"
	"codesage/api/internal/repository"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			log := logging.NewJSON(cmd.OutOrStdout(), cfg.LogLevel).With("service", "codesage")
			return runServe(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore returns the configured store and a cleanup function.
func openStore(ctx context.Context, cfg config.Config, log logging.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		log.Warn(ctx, "using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.Options{Attempts: cfg.DBConnectAttempts, Logger: log})
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(conn), closer(ctx, log, "database", conn), nil
}

func closer(ctx context.Context, log logging.Logger, name string, c interface{ Close() error }) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn(ctx, name+" close error", "error", err)
		}
	}
}

func openReviewCache(ctx context.Context, cfg config.Config, log logging.Logger) (generation.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Info(ctx, "review cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ReviewCacheTTL.String())
	return generation.NewRedisCache(client, cfg.ReviewCacheTTL), closer(ctx, log, "redis", client), nil
}

func buildHandler(ctx context.Context, cfg config.Config, log logging.Logger) (http.Handler, func(), error) {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cache, closeCache, err := openReviewCache(ctx, cfg, log)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	if cfg.GeminiAPIKey == "" {
		log.Warn(ctx, "GEMINI_API_KEY is missing; code reviews will fail")
	}
	m := metrics.New()
	opts := []generation.Option{
		generation.WithLogger(log.With("component", "generation")),
		generation.WithRecorder(m),
	}
	if cache != nil {
		opts = append(opts, generation.WithCache(cache))
	}
	reviewer := generation.NewReviewer(generation.NewGemini(generation.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		MaxRetries: 3,
	}), opts...)

	server := internalhttp.NewServer(cfg, store, reviewer, log, m)
	cleanup := func() {
		closeCache()
		closeStore()
	}
	return server.Router(), cleanup, nil
}

func runServe(ctx context.Context, cfg config.Config, log logging.Logger) error {
	handler, cleanup, err := buildHandler(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "codesage listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
