// Copyright (c) 2026 Wearmint. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, clients) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the catalog API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Minting provider (blockchain gateway)
	MintAPIURL string `env:"MINT_API_URL,required"`
	MintAPIKey string `env:"MINT_API_KEY,required"`

	// MintTryLimit bounds the retry loop around the mint-then-persist sequence.
	MintTryLimit int `env:"MINT_TRY_LIMIT" envDefault:"3"`

	// PollingInterval is the wait between edition-confirmation polls.
	PollingInterval time.Duration `env:"POLLING_INTERVAL" envDefault:"5s"`

	// ConfirmTimeout is how long the confirmation poller waits for the
	// provider to assign an edition id before giving up. The default matches
	// the conventional 15-minute on-chain settlement window.
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"15m"`

	// Scheduler sidecar (one-shot date-trigger jobs)
	SchedulerURL string `env:"SCHEDULER_URL,required"`

	// CMS wearable-asset lookup
	CmsURL      string `env:"CMS_URL,required"`
	CmsAPIToken string `env:"CMS_API_TOKEN"`

	// Wearable asset filename allowlists, used to partition a wearable's
	// file list into image and video URL sets for off-chain metadata.
	WearableImages []string `env:"WEARABLE_IMAGES" envSeparator:","`
	WearableVideos []string `env:"WEARABLE_VIDEOS" envSeparator:","`

	// Storefront identifiers forwarded to the provider's sell mutation.
	NftStorageName string `env:"NFT_STORAGE_NAME"`
	FtName         string `env:"FT_NAME"`
	FtStorageName  string `env:"FT_STORAGE_NAME"`

	// EnumCacheTTL controls how long provider enumeration sets stay cached.
	EnumCacheTTL time.Duration `env:"ENUM_CACHE_TTL" envDefault:"10m"`

	// Public key used to verify CMS-issued access tokens (RS256).
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	cfg := &Config{}

	// Map environment variables to struct fields. This fails fast if any
	// field marked 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ExtraAllowedOrigins returns the comma-separated EXTRA_ORIGINS entries.
func (c *Config) ExtraAllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}
	origins := strings.Split(c.ExtraOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
