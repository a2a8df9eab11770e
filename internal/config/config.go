package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout time.Duration
	// FetchMaxRetries is the number of retries on server errors.
	FetchMaxRetries int
	// DataBaseURL resolves relative dataset URLs.
	DataBaseURL string

	// Result cache retention.
	CacheMaxEntries    int           // max number of cached series (0 = unlimited)
	CacheTTL           time.Duration // max age of a cached series (0 = never expires)
	CacheSweepInterval time.Duration

	// Warm-up of the graph datasets.
	WarmupInterval time.Duration
	WarmupMaxItems int

	PreferencesFile string

	// Static configuration assets.
	Datasets weather.Datasets
	Graphs   []weather.GraphDescriptor
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DataBaseURL = getenvDefault("DATA_BASE_URL", "http://127.0.0.1:"+cfg.Port)
	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 2)
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 0)
	cfg.WarmupMaxItems = getenvInt("WARMUP_MAX_ITEMS", 0)
	cfg.PreferencesFile = getenvDefault("PREFERENCES_FILE", ".station-meteo-prefs.json")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "0s"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.WarmupInterval, err = getenvDuration("WARMUP_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if cfg.Datasets, err = LoadDatasets(os.Getenv("DATASOURCES_FILE")); err != nil {
		return nil, err
	}
	if cfg.Graphs, err = LoadGraphs(os.Getenv("GRAPHS_FILE"), cfg.Datasets); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
