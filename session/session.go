// Package session creates and disposes of the data layer of one client
// session: the caching GraphQL client, the hero card coordinator, and the
// image cache they share.
package session

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/config"
	"github.com/playingarts/go-libplayingarts/gqlcache"
	"github.com/playingarts/go-libplayingarts/gqlclient"
	"github.com/playingarts/go-libplayingarts/herocards"
	"github.com/playingarts/go-libplayingarts/imgcache"
)

var log = logging.Logger("session")

// Session holds the data layer components of a client session.
type Session struct {
	Client    *gqlcache.Client
	HeroCards *herocards.Coordinator
	Images    *imgcache.Cache

	timeout time.Duration
}

// New creates a session configured by cfg.
func New(cfg config.Config, options ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	exec := opts.executor
	if exec == nil {
		gqlOpts := []gqlclient.Option{
			gqlclient.WithClient(opts.httpClient),
			gqlclient.WithRetries(cfg.HTTPRetries),
		}
		for name, value := range cfg.Headers {
			gqlOpts = append(gqlOpts, gqlclient.WithHeader(name, value))
		}
		exec, err = gqlclient.New(cfg.Endpoint, gqlOpts...)
		if err != nil {
			return nil, fmt.Errorf("cannot create graphql client: %w", err)
		}
	}

	client, err := gqlcache.New(exec)
	if err != nil {
		return nil, err
	}

	images, err := imgcache.New(
		imgcache.WithClient(opts.httpClient),
		imgcache.WithMaxEntries(cfg.ImageCacheSize))
	if err != nil {
		client.Close()
		return nil, err
	}

	heroCards, err := herocards.New(herocards.NewSource(client),
		herocards.WithMinItems(cfg.MinHeroCards),
		herocards.WithRetries(cfg.FetchRetries),
		herocards.WithRecentTTL(cfg.RecentTTL),
		herocards.WithWarmer(images))
	if err != nil {
		images.Close()
		client.Close()
		return nil, err
	}

	log.Infow("Session started", "endpoint", exec)
	return &Session{
		Client:    client,
		HeroCards: heroCards,
		Images:    images,
		timeout:   cfg.FetchTimeout,
	}, nil
}

// NewView creates a hero card view that uses the session's coordinator and
// fetch timeout. Close the view when it is no longer shown.
func (s *Session) NewView() *herocards.View {
	return herocards.NewView(s.HeroCards, s.timeout)
}

// Reset empties the data cache, as at a navigation boundary. Prefetched hero
// cards and cached images are kept.
func (s *Session) Reset() {
	s.Client.Reset()
}

// Close stops all background work and releases the session's resources.
func (s *Session) Close() error {
	var errs error
	s.HeroCards.Close()
	if err := s.Images.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("cannot close image cache: %w", err))
	}
	s.Client.Close()
	return errs
}
