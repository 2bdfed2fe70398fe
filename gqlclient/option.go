package gqlclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultRetryWaitMin = 250 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
)

type config struct {
	httpClient   *http.Client
	header       http.Header
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		httpClient:   http.DefaultClient,
		header:       make(http.Header),
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClient allows creation of the http client using an underlying network
// round tripper / client.
func WithClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c != nil {
			cfg.httpClient = c
		}
		return nil
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(cfg *config) error {
		cfg.header.Add(key, value)
		return nil
	}
}

// WithRetries configures retrying requests that fail with a connection error
// or a 5xx response. A value of 0 disables retries.
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

// WithRetryWait sets the minimum and maximum time to wait between retries.
//
// Default is 250ms and 2s.
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(cfg *config) error {
		if waitMin > waitMax {
			return errors.New("minimum retry wait greater than maximum")
		}
		cfg.retryWaitMin = waitMin
		cfg.retryWaitMax = waitMax
		return nil
	}
}
