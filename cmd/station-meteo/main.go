package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/vostoksystem/station-meteo/internal/api/http"
	"github.com/vostoksystem/station-meteo/internal/config"
	"github.com/vostoksystem/station-meteo/internal/dashboard"
	"github.com/vostoksystem/station-meteo/internal/scheduler"
	"github.com/vostoksystem/station-meteo/internal/store"
	"github.com/vostoksystem/station-meteo/internal/weather"
	"github.com/vostoksystem/station-meteo/internal/weather/providers"
)

func main() {
	// Load configuration (.env, environment, dataset and graph assets).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.FetchMaxRetries,
			InitialInterval: providers.DefaultBackoff.InitialInterval,
			MaxInterval:     providers.DefaultBackoff.MaxInterval,
		},
	}

	// Result cache with configured retention.
	memStore := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL)

	// Providers with resilience (backoff + circuit breaker).
	csvProvider, err := providers.NewCSVProvider(httpCfg, cfg.DataBaseURL)
	if err != nil {
		log.Fatalf("failed to create csv provider: %v", err)
	}
	provs := []weather.Provider{
		providers.NewFixtureProvider(),
		csvProvider,
		providers.NewOpenMeteoProvider(httpCfg, ""),
	}

	resolver := weather.NewResolver(cfg.Datasets, memStore, provs...)

	prefs, err := dashboard.NewFilePreferences(cfg.PreferencesFile)
	if err != nil {
		log.Fatalf("failed to load preferences: %v", err)
	}
	tabs := dashboard.NewTabs(cfg.Graphs, prefs)

	app := fiber.New(fiber.Config{
		AppName:               "station-meteo",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ok",
			"service":      "station-meteo",
			"cachedSeries": memStore.Len(),
		})
	})

	// Bundled data files, the default target of relative dataset URLs.
	app.Use("/data", filesystem.New(filesystem.Config{
		Root: http.FS(config.DataFS()),
	}))

	httpapi.RegisterRoutes(app, resolver, tabs)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// The warm-up may read the bundled data over HTTP, so it starts after the listener.
	var sweeper scheduler.Sweeper
	if cfg.CacheTTL > 0 {
		sweeper = memStore
	}
	sched := scheduler.New(cfg.Graphs, scheduler.Config{
		WarmupInterval: cfg.WarmupInterval,
		WarmupMaxItems: cfg.WarmupMaxItems,
		SweepInterval:  cfg.CacheSweepInterval,
	}, resolver, sweeper)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	log.Printf("INFO: station-meteo listening on :%s (%d datasets, %d graphs)", cfg.Port, len(cfg.Datasets), len(cfg.Graphs))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
