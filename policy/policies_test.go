package policy_test

import (
	"testing"

	"github.com/playingarts/go-libplayingarts/entity"
	"github.com/playingarts/go-libplayingarts/policy"
	"github.com/playingarts/go-libplayingarts/result"
	"github.com/playingarts/go-libplayingarts/schema"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *entity.Store
	results  *result.Cache
	registry *policy.Registry
	reader   policy.Reader
}

func newFixture(t *testing.T) *fixture {
	store, err := entity.New(entity.WithTypePolicies(schema.TypePolicies()))
	require.NoError(t, err)
	results := result.New()
	t.Cleanup(func() {
		store.Close()
		results.Close()
	})
	registry := policy.Default()
	return &fixture{
		store:    store,
		results:  results,
		registry: registry,
		reader:   policy.NewReader(store, results, registry),
	}
}

// write caches data as the network result of q with vars.
func (f *fixture) write(q schema.Query, vars map[string]any, data any) {
	f.results.Put(q.Field, vars, f.store.Normalize(data))
}

func (f *fixture) read(q schema.Query, vars map[string]any) (any, bool) {
	return f.registry.Read(q.Field, policy.Args(vars), f.reader)
}

func deckData(id, slug string) map[string]any {
	return map[string]any{
		"__typename":     "Deck",
		"_id":            id,
		"slug":           slug,
		"title":          "Deck " + slug,
		"info":           "info",
		"short":          "short",
		"image":          "https://cdn/" + slug + ".jpg",
		"cardBackground": "#000",
	}
}

func cardData(id, artist, edition string) map[string]any {
	return map[string]any{
		"__typename": "Card",
		"_id":        id,
		"img":        "https://cdn/" + id + ".jpg",
		"video":      nil,
		"info":       "",
		"background": "#fff",
		"value":      "2",
		"suit":       "hearts",
		"edition":    edition,
		"artist": map[string]any{
			"__typename": "Artist",
			"slug":       artist,
			"name":       artist,
			"country":    "NL",
		},
	}
}

func zeroCards() []any {
	return []any{
		cardData("c1", "alice", "chromatic"),
		cardData("c2", "bob", "spades"),
		cardData("c3", "carol", "chromatic"),
	}
}

func TestCardBySlugFromCachedList(t *testing.T) {
	f := newFixture(t)
	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, zeroCards())
	entities, results := f.store.Len(), f.results.Len()

	card, ok := f.read(schema.CardQuery, map[string]any{"slug": "bob", "deckSlug": "zero"})
	require.True(t, ok)
	require.Equal(t, "c2", card.(map[string]any)["_id"])

	// Cached list with no match is a cached "not found".
	card, ok = f.read(schema.CardQuery, map[string]any{"slug": "nobody", "deckSlug": "zero"})
	require.True(t, ok)
	require.Nil(t, card)

	// Reads do not write.
	require.Equal(t, entities, f.store.Len())
	require.Equal(t, results, f.results.Len())
}

func TestCardBySlugSlugKeyedList(t *testing.T) {
	f := newFixture(t)
	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	f.write(schema.CardsQuery, map[string]any{"deck": "zero"}, zeroCards())

	card, ok := f.read(schema.CardQuery, map[string]any{"slug": "carol", "deckSlug": "zero"})
	require.True(t, ok)
	require.Equal(t, "c3", card.(map[string]any)["_id"])
}

func TestCardBySlugSkipsNotFoundIDList(t *testing.T) {
	f := newFixture(t)
	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, nil)
	f.write(schema.CardsQuery, map[string]any{"deck": "zero"}, zeroCards())

	card, ok := f.read(schema.CardQuery, map[string]any{"slug": "alice", "deckSlug": "zero"})
	require.True(t, ok)
	require.Equal(t, "c1", card.(map[string]any)["_id"])
}

func TestCardBySlugDefers(t *testing.T) {
	f := newFixture(t)
	vars := map[string]any{"slug": "alice", "deckSlug": "zero"}

	// Deck not cached.
	_, ok := f.read(schema.CardQuery, vars)
	require.False(t, ok)

	// Deck cached, list not cached.
	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	_, ok = f.read(schema.CardQuery, vars)
	require.False(t, ok)

	// List for another deck does not count.
	f.write(schema.CardsQuery, map[string]any{"deck": "d1"}, zeroCards())
	_, ok = f.read(schema.CardQuery, vars)
	require.False(t, ok)

	// Missing variables.
	_, ok = f.read(schema.CardQuery, map[string]any{"slug": "alice"})
	require.False(t, ok)
	_, ok = f.read(schema.CardQuery, nil)
	require.False(t, ok)
}

func TestCardByID(t *testing.T) {
	f := newFixture(t)

	_, ok := f.read(schema.CardQuery, map[string]any{"id": "c1"})
	require.False(t, ok)

	// Card cached by a list query for its deck.
	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, zeroCards())
	card, ok := f.read(schema.CardQuery, map[string]any{"id": "c1"})
	require.True(t, ok)
	require.Equal(t, "alice", card.(map[string]any)["artist"].(map[string]any)["slug"])
}

func TestCardsByEdition(t *testing.T) {
	f := newFixture(t)
	vars := map[string]any{"deck": "d0", "edition": "chromatic"}

	_, ok := f.read(schema.CardsQuery, vars)
	require.False(t, ok)

	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, zeroCards())
	cards, ok := f.read(schema.CardsQuery, vars)
	require.True(t, ok)
	list := cards.([]any)
	require.Len(t, list, 2)
	require.Equal(t, "c1", list[0].(map[string]any)["_id"])
	require.Equal(t, "c3", list[1].(map[string]any)["_id"])

	cards, ok = f.read(schema.CardsQuery, map[string]any{"deck": "d0", "edition": "none"})
	require.True(t, ok)
	require.Empty(t, cards)

	// Without an edition there is nothing to derive.
	_, ok = f.read(schema.CardsQuery, map[string]any{"deck": "d0"})
	require.False(t, ok)
}

func TestDeckFromOtherQuery(t *testing.T) {
	f := newFixture(t)
	vars := map[string]any{"slug": "crypto"}

	_, ok := f.read(schema.DeckQuery, vars)
	require.False(t, ok)

	// Deck list query caches every deck.
	f.write(schema.DecksQuery, nil, []any{deckData("d0", "zero"), deckData("d1", "crypto")})
	deck, ok := f.read(schema.DeckQuery, vars)
	require.True(t, ok)
	require.Equal(t, "d1", deck.(map[string]any)["_id"])
	require.Nil(t, deck.(map[string]any)["openseaCollection"])

	// A deck cached without all rendered fields defers.
	f.store.Merge("Deck", map[string]any{"slug": "partial", "title": "Partial"})
	_, ok = f.read(schema.DeckQuery, map[string]any{"slug": "partial"})
	require.False(t, ok)
}

func TestCardsByIDs(t *testing.T) {
	f := newFixture(t)
	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, zeroCards())

	cards, ok := f.read(schema.CardsByIDsQuery, map[string]any{"ids": []any{"c3", "c1"}})
	require.True(t, ok)
	list := cards.([]any)
	require.Len(t, list, 2)
	require.Equal(t, "c3", list[0].(map[string]any)["_id"])

	_, ok = f.read(schema.CardsByIDsQuery, map[string]any{"ids": []string{"c1", "c9"}})
	require.False(t, ok)
	_, ok = f.read(schema.CardsByIDsQuery, map[string]any{"ids": []string{}})
	require.False(t, ok)
	_, ok = f.read(schema.CardsByIDsQuery, map[string]any{"ids": []any{1, 2}})
	require.False(t, ok)
}

func TestProducts(t *testing.T) {
	f := newFixture(t)
	f.store.Merge("Product", map[string]any{"_id": "p1", "title": "Zero"})

	refs, ok := f.read(schema.ProductsQuery, map[string]any{"ids": []string{"p1"}})
	require.True(t, ok)
	require.Equal(t, []any{entity.Reference{Ref: `Product:{"_id":"p1"}`}}, refs)

	_, ok = f.read(schema.ProductsQuery, map[string]any{"ids": []string{"p1", "p2"}})
	require.False(t, ok)
}

func TestLoserReference(t *testing.T) {
	f := newFixture(t)

	ref, ok := f.read(schema.LoserQuery, map[string]any{"img": "https://cdn/l.jpg"})
	require.True(t, ok)
	require.Equal(t, entity.Reference{Ref: `Loser:{"img":"https://cdn/l.jpg"}`}, ref)

	// The reference is not backed by a record, so reading the query misses.
	_, ok = f.reader.ReadQuery(schema.LoserQuery, map[string]any{"img": "https://cdn/l.jpg"})
	require.False(t, ok)

	f.store.Merge("Loser", map[string]any{"img": "https://cdn/l.jpg"})
	loser, ok := f.reader.ReadQuery(schema.LoserQuery, map[string]any{"img": "https://cdn/l.jpg"})
	require.True(t, ok)
	require.Equal(t, "https://cdn/l.jpg", loser.(map[string]any)["img"])

	_, ok = f.read(schema.LoserQuery, nil)
	require.False(t, ok)
}

func TestMalformedCacheDefers(t *testing.T) {
	f := newFixture(t)
	f.results.Put("cards", map[string]any{"deck": "d0"}, "not a list")
	_, ok := f.read(schema.CardsQuery, map[string]any{"deck": "d0", "edition": "chromatic"})
	require.False(t, ok)

	f.results.Put("cards", map[string]any{"deck": "d1"}, []any{"not a card"})
	_, ok = f.read(schema.CardsQuery, map[string]any{"deck": "d1", "edition": "chromatic"})
	require.False(t, ok)

	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	_, ok = f.read(schema.CardQuery, map[string]any{"slug": "alice", "deckSlug": "zero"})
	require.False(t, ok)
}

func TestRegistryRead(t *testing.T) {
	f := newFixture(t)

	_, ok := f.registry.Read("unknown", nil, f.reader)
	require.False(t, ok)
	require.False(t, f.registry.Has("unknown"))
	require.True(t, f.registry.Has("deck"))

	f.registry.Register("broken", func(args policy.Args, r policy.Reader) (any, bool) {
		var m map[string]any
		m["x"] = 1
		return m, true
	})
	data, ok := f.registry.Read("broken", nil, f.reader)
	require.False(t, ok)
	require.Nil(t, data)
}

func TestPolicyIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(schema.DeckQuery, map[string]any{"slug": "zero"}, deckData("d0", "zero"))
	f.write(schema.CardsQuery, map[string]any{"deck": "d0"}, zeroCards())

	vars := map[string]any{"slug": "alice", "deckSlug": "zero"}
	first, ok1 := f.read(schema.CardQuery, vars)
	second, ok2 := f.read(schema.CardQuery, vars)
	require.Equal(t, ok1, ok2)
	require.Equal(t, first, second)
}
