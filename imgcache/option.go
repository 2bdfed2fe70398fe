package imgcache

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ipfs/go-datastore"
)

const (
	defaultMaxEntries = 50
	defaultMaxSize    = 16 << 20
	defaultTimeout    = 5 * time.Second
)

type config struct {
	datastore  datastore.Datastore
	httpClient *http.Client
	maxEntries int
	maxSize    int64
	retryMax   int
	timeout    time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		httpClient: http.DefaultClient,
		maxEntries: defaultMaxEntries,
		maxSize:    defaultMaxSize,
		timeout:    defaultTimeout,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClient sets the http client used to fetch images.
func WithClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c != nil {
			cfg.httpClient = c
		}
		return nil
	}
}

// WithDatastore sets the datastore that holds image bytes. The datastore must
// be safe for concurrent use. The cache takes ownership and closes it when
// the cache is closed.
//
// Default is an in-memory map datastore.
func WithDatastore(ds datastore.Datastore) Option {
	return func(cfg *config) error {
		cfg.datastore = ds
		return nil
	}
}

// WithMaxEntries sets the maximum number of images kept. When exceeded, the
// images stored longest ago are removed first.
//
// Default is 50.
func WithMaxEntries(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return errors.New("max entries must be at least 1")
		}
		cfg.maxEntries = n
		return nil
	}
}

// WithMaxSize sets the largest image, in bytes, that is cached.
//
// Default is 16 MiB.
func WithMaxSize(size int64) Option {
	return func(cfg *config) error {
		if size < 1 {
			return errors.New("max size must be positive")
		}
		cfg.maxSize = size
		return nil
	}
}

// WithRetries sets the number of times a failed image fetch is retried.
//
// Default is 0.
func WithRetries(retryMax int) Option {
	return func(cfg *config) error {
		if retryMax < 0 {
			return errors.New("retries must not be negative")
		}
		cfg.retryMax = retryMax
		return nil
	}
}

// WithTimeout limits how long a single warm fetch may take, so that a hanging
// image server does not hold resources indefinitely.
//
// Default is 5 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = timeout
		return nil
	}
}
