package herocards

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultMinItems = 2
	// DefaultTimeout is how long a View waits for hero cards before offering
	// a retry.
	DefaultTimeout = 15 * time.Second
)

// Warmer loads images ahead of display. Failures are not reported.
type Warmer interface {
	Warm(urls ...string)
}

type config struct {
	minItems  int
	recentTTL time.Duration
	retries   int
	warmer    Warmer
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		minItems: defaultMinItems,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithMinItems sets the fewest cards a fetch must return to be usable. A fetch
// returning fewer cards fails with ErrInsufficient.
//
// Default is 2.
func WithMinItems(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return errors.New("min items must be at least 1")
		}
		cfg.minItems = n
		return nil
	}
}

// WithRecentTTL keeps each fetched result for the given time, during which
// fetches for the same deck are answered without a request. This absorbs
// rapid navigation back and forth between decks. A value of 0 disables this.
//
// Default is 0.
func WithRecentTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl < 0 {
			return errors.New("recent ttl must not be negative")
		}
		cfg.recentTTL = ttl
		return nil
	}
}

// WithRetries sets the number of times a failed fetch is repeated before the
// failure is reported. Abandoned requests are not retried.
//
// Default is 0.
func WithRetries(n int) Option {
	return func(cfg *config) error {
		if n < 0 {
			return errors.New("retries must not be negative")
		}
		cfg.retries = n
		return nil
	}
}

// WithWarmer sets the image cache warmed with card images after every
// successful fetch.
func WithWarmer(w Warmer) Option {
	return func(cfg *config) error {
		cfg.warmer = w
		return nil
	}
}
