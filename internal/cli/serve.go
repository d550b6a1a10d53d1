package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/MalithGihan/blueprint-service/internal/api"
	"github.com/MalithGihan/blueprint-service/internal/config"
	"github.com/MalithGihan/blueprint-service/internal/ratelimit"
	"github.com/MalithGihan/blueprint-service/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("BLUEPRINT_CONFIG")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			// --verbose wins over the configured level
			if lvl, err := charmlog.ParseLevel(cfg.Log.Level); err == nil && logger.GetLevel() != charmlog.DebugLevel {
				logger.SetLevel(lvl)
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a blueprint.toml file")
	return cmd
}

func newLimiter(ctx context.Context, cfg *config.Config, logger *charmlog.Logger) (ratelimit.Limiter, func(), error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.Noop{}, func() {}, nil
	}
	if rl.RedisURL == "" {
		return ratelimit.NewMemory(rl.RequestsPerMinute, rl.Burst), func() {}, nil
	}
	r, err := ratelimit.NewRedis(rl.RedisURL, rl.RequestsPerMinute)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, rate limiting per instance", "err", err)
		_ = r.Close()
		return ratelimit.NewMemory(rl.RequestsPerMinute, rl.Burst), func() {}, nil
	}
	return r, func() { _ = r.Close() }, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *charmlog.Logger) error {
	st, err := store.New(cfg.Data.Root)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	limiter, closeLimiter, err := newLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.New(cfg, st, limiter, logger).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("blueprint-service listening", "addr", srv.Addr, "data_root", cfg.Data.Root)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
