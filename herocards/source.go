package herocards

import (
	"context"
	"fmt"

	"github.com/playingarts/go-libplayingarts/gqlcache"
	"github.com/playingarts/go-libplayingarts/schema"
)

// Source is the interface implemented by anything that can fetch the hero
// cards of a deck.
type Source interface {
	// Fetch gets hero cards for the deck identified by slug.
	Fetch(ctx context.Context, slug string) ([]schema.HeroCard, error)
	// String returns a description of the source.
	String() string
}

type gqlSource struct {
	client *gqlcache.Client
}

// NewSource returns a Source that queries hero cards through client. Hero
// cards are a random sample that differs on every request, so responses are
// never written to, or read from, the cache.
func NewSource(client *gqlcache.Client) Source {
	return &gqlSource{
		client: client,
	}
}

func (s *gqlSource) Fetch(ctx context.Context, slug string) ([]schema.HeroCard, error) {
	data, err := s.client.Query(ctx, schema.HeroCardsQuery, map[string]any{"slug": slug}, gqlcache.NoCache)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var cards []schema.HeroCard
	if err = schema.Decode(data, &cards); err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].DeckSlug = slug
	}
	return cards, nil
}

func (s *gqlSource) String() string {
	return fmt.Sprint("graphql hero cards via ", s.client)
}
