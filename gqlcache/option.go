package gqlcache

import (
	"fmt"

	"github.com/playingarts/go-libplayingarts/entity"
	"github.com/playingarts/go-libplayingarts/policy"
	"github.com/playingarts/go-libplayingarts/schema"
)

type config struct {
	registry     *policy.Registry
	typePolicies map[string]entity.TypePolicy
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		typePolicies: schema.TypePolicies(),
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	if cfg.registry == nil {
		cfg.registry = policy.Default()
	}
	return cfg, nil
}

// WithRegistry sets the read policies used to answer queries from cache.
//
// Default is policy.Default().
func WithRegistry(r *policy.Registry) Option {
	return func(cfg *config) error {
		cfg.registry = r
		return nil
	}
}

// WithTypePolicies sets the type policies that determine how objects are
// identified in the entity store. These replace the default policies.
//
// Default is schema.TypePolicies().
func WithTypePolicies(policies map[string]entity.TypePolicy) Option {
	return func(cfg *config) error {
		cfg.typePolicies = policies
		return nil
	}
}
