package session

import (
	"fmt"
	"net/http"

	"github.com/playingarts/go-libplayingarts/gqlclient"
)

type options struct {
	executor   gqlclient.Executor
	httpClient *http.Client
}

// Option is a function that sets a value in options.
type Option func(*options) error

// getOpts creates options and applies Options to them.
func getOpts(opts []Option) (options, error) {
	cfg := options{
		httpClient: http.DefaultClient,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return options{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClient sets the http client used for GraphQL requests and image
// fetches.
func WithClient(c *http.Client) Option {
	return func(cfg *options) error {
		if c != nil {
			cfg.httpClient = c
		}
		return nil
	}
}

// WithExecutor sets the executor for GraphQL requests, in place of an http
// client for the configured endpoint.
func WithExecutor(exec gqlclient.Executor) Option {
	return func(cfg *options) error {
		cfg.executor = exec
		return nil
	}
}
