package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"keylevels/internal/api"
	"keylevels/internal/cache"
	"keylevels/internal/provider"
	"keylevels/internal/resilience"
	"keylevels/internal/service"
	"keylevels/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the HTTP server exposing market data and key-level endpoints.

The server answers GET /api/data, GET /api/keylevels, POST /api/alerts,
and GET /health. It shuts down cleanly on SIGINT or SIGTERM.`,
		Example: `  keylevels serve
  keylevels serve --port 9000
  keylevels serve --provider synthetic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				app.Config.Server.Port = port
			}
			if name, _ := cmd.Flags().GetString("provider"); name != "" {
				app.Config.Provider.Name = name
			}

			svc, cleanup, err := buildService(app)
			if err != nil {
				return err
			}
			defer cleanup()

			handler := api.NewHandler(svc, app.Config.Algorithm, app.Logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.Logger.Info().
				Str("host", app.Config.Server.Host).
				Int("port", app.Config.Server.Port).
				Str("provider", app.Config.Provider.Name).
				Str("cache", app.Config.Cache.Backend).
				Msg("Starting server")

			return handler.Serve(ctx, app.Config.Server.Host, app.Config.Server.Port)
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	cmd.Flags().String("provider", "", "market data provider (yahoo, synthetic)")

	return cmd
}

// buildService wires cache, store, and provider into a Service from the
// loaded configuration. The returned cleanup closes everything opened.
func buildService(app *App) (*service.Service, func(), error) {
	var respCache cache.Cache
	switch app.Config.Cache.Backend {
	case "redis":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:       app.Config.Cache.Addr,
			Password:   app.Config.Cache.Password,
			DB:         app.Config.Cache.DB,
			Prefix:     app.Config.Cache.Prefix,
			DefaultTTL: app.Config.Cache.TTL,
		})
		if err := rc.Ping(context.Background()); err != nil {
			app.Logger.Warn().Err(err).Msg("Redis unreachable, falling back to in-memory cache")
			respCache = cache.NewMemoryCache(app.Config.Cache.TTL)
		} else {
			respCache = rc
		}
	case "memory":
		respCache = cache.NewMemoryCache(app.Config.Cache.TTL)
	default:
		return nil, nil, fmt.Errorf("unknown cache backend: %s", app.Config.Cache.Backend)
	}

	var barStore store.BarStore
	if app.Config.Store.Enabled {
		if err := os.MkdirAll(filepath.Dir(app.Config.Store.Path), 0755); err != nil {
			app.Logger.Warn().Err(err).Msg("Bar store directory unavailable, continuing without it")
		} else if s, err := store.NewSQLiteStore(app.Config.Store.Path); err != nil {
			app.Logger.Warn().Err(err).Msg("Bar store unavailable, continuing without it")
		} else {
			barStore = s
		}
	}

	prov, err := provider.New(app.Config.Provider.Name, provider.Config{
		Timeout:  int(app.Config.Provider.Timeout.Seconds()),
		ProxyURL: app.Config.Provider.ProxyURL,
	})
	if err == nil && app.Config.Provider.Name == "yahoo" {
		breaker := resilience.NewBreaker("yahoo", resilience.DefaultConfig())
		breaker.OnStateChange(func(name string, from, to resilience.State) {
			app.Logger.Warn().
				Str("breaker", name).
				Str("from", string(from)).
				Str("to", string(to)).
				Msg("Circuit breaker state changed")
		})
		prov = provider.WithBreaker(prov, breaker)
	}
	if err != nil {
		respCache.Close()
		if barStore != nil {
			barStore.Close()
		}
		return nil, nil, err
	}

	svc := service.New(service.Options{
		Provider:  prov,
		Store:     barStore,
		Cache:     respCache,
		Logger:    app.Logger,
		CacheTTL:  app.Config.Cache.TTL,
		Freshness: app.Config.Store.Freshness,
		Timeout:   app.Config.Server.ComputeTimeout,
	})

	cleanup := func() {
		respCache.Close()
		if barStore != nil {
			barStore.Close()
		}
	}
	return svc, cleanup, nil
}
