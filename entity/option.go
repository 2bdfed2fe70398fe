package entity

import (
	"errors"
	"fmt"
)

// TypePolicy describes how objects of one __typename are identified and read.
type TypePolicy struct {
	// KeyFields lists the fields whose values identify an object of this
	// type. Objects of a type with no key fields are never normalized.
	KeyFields []string
	// Nullable lists optional fields that read as null, rather than as a
	// miss, when they were never written.
	Nullable []string
}

type config struct {
	policies map[string]TypePolicy
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		policies: make(map[string]TypePolicy),
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithTypePolicy sets the policy used for objects with the given __typename.
func WithTypePolicy(typeName string, policy TypePolicy) Option {
	return func(cfg *config) error {
		if typeName == "" {
			return errors.New("empty type name")
		}
		for _, f := range policy.KeyFields {
			if f == "" {
				return fmt.Errorf("empty key field for type %s", typeName)
			}
		}
		cfg.policies[typeName] = policy
		return nil
	}
}

// WithTypePolicies sets policies for multiple types.
func WithTypePolicies(policies map[string]TypePolicy) Option {
	return func(cfg *config) error {
		for typeName, policy := range policies {
			if err := WithTypePolicy(typeName, policy)(cfg); err != nil {
				return err
			}
		}
		return nil
	}
}
