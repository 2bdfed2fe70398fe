// Package config reads client session settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
)

// Config holds the settings for a client session.
type Config struct {
	// Endpoint is the site or GraphQL endpoint URL.
	Endpoint string `env:"PLAYINGARTS_ENDPOINT" envDefault:"https://playingarts.com"`
	// HTTPRetries is the number of times a failed GraphQL request is retried
	// at the transport level.
	HTTPRetries int `env:"PLAYINGARTS_HTTP_RETRIES" envDefault:"0"`
	// FetchTimeout is how long a view waits for hero cards before offering a
	// retry.
	FetchTimeout time.Duration `env:"PLAYINGARTS_FETCH_TIMEOUT" envDefault:"15s"`
	// FetchRetries is the number of times a failed hero card fetch is
	// repeated.
	FetchRetries int `env:"PLAYINGARTS_FETCH_RETRIES" envDefault:"0"`
	// MinHeroCards is the fewest hero cards that are worth showing.
	MinHeroCards int `env:"PLAYINGARTS_MIN_HERO_CARDS" envDefault:"2"`
	// RecentTTL keeps fetched hero cards for reuse. Zero disables it.
	RecentTTL time.Duration `env:"PLAYINGARTS_RECENT_TTL" envDefault:"0s"`
	// ImageCacheSize is the number of images kept in memory.
	ImageCacheSize int `env:"PLAYINGARTS_IMAGE_CACHE_SIZE" envDefault:"50"`
	// Headers are extra headers sent with every GraphQL request, as
	// name:value pairs.
	Headers map[string]string `env:"PLAYINGARTS_HEADERS" envSeparator:"," envKeyValSeparator:":"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads a Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns a Config with default values, ignoring the environment.
func Default() (Config, error) {
	var cfg Config
	// Parsing an empty environment only applies defaults.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return Config{}, fmt.Errorf("parse defaults: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs error
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invalid endpoint: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = multierror.Append(errs, fmt.Errorf("endpoint must have http or https scheme: %q", c.Endpoint))
	}
	if c.HTTPRetries < 0 {
		errs = multierror.Append(errs, errors.New("http retries must not be negative"))
	}
	if c.FetchTimeout <= 0 {
		errs = multierror.Append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.FetchRetries < 0 {
		errs = multierror.Append(errs, errors.New("fetch retries must not be negative"))
	}
	if c.MinHeroCards < 1 {
		errs = multierror.Append(errs, errors.New("min hero cards must be at least 1"))
	}
	if c.RecentTTL < 0 {
		errs = multierror.Append(errs, errors.New("recent ttl must not be negative"))
	}
	if c.ImageCacheSize < 1 {
		errs = multierror.Append(errs, errors.New("image cache size must be at least 1"))
	}
	return errs
}
