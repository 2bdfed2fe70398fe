package policy

import (
	"github.com/playingarts/go-libplayingarts/schema"
)

// Card resolves a single card either by id, or by the slug of its artist
// within a deck.
//
// By id, the card is answered when its fields are already cached, whichever
// query delivered them.
//
// By slug and deckSlug, the deck must be readable from cache. The cached card
// list for the deck is then looked up by the deck's id and, failing that, by
// the deck's slug, since both have been used to query the same list. If the
// list is cached but holds no card by that artist, the answer is "not found"
// rather than a network fetch.
func Card(args Args, r Reader) (any, bool) {
	if id := args.String("id"); id != "" {
		ref, ok := r.ToReference(schema.TypeCard, map[string]any{"_id": id})
		if !ok {
			return nil, false
		}
		card, ok := r.ReadFragment(ref, schema.CardFragment)
		if !ok {
			return nil, false
		}
		return card, true
	}

	slug := args.String("slug")
	deckSlug := args.String("deckSlug")
	if slug == "" || deckSlug == "" {
		return nil, false
	}

	cached, ok := r.ReadQuery(schema.DeckQuery, map[string]any{"slug": deckSlug})
	if !ok {
		return nil, false
	}
	deck, ok := cached.(map[string]any)
	if !ok {
		return nil, false
	}

	cards, ok := deckCards(deck, r)
	if !ok {
		return nil, false
	}
	for _, item := range cards {
		card, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		if artist, ok := card["artist"].(map[string]any); ok && artist["slug"] == slug {
			return card, true
		}
	}
	return nil, true
}

// deckCards reads the cached card list of a deck, keyed by deck id or, if
// absent or not a list, by deck slug.
func deckCards(deck map[string]any, r Reader) ([]any, bool) {
	for _, field := range []string{"_id", "slug"} {
		key, _ := deck[field].(string)
		if key == "" {
			continue
		}
		cached, ok := r.ReadQuery(schema.CardsQuery, map[string]any{"deck": key})
		if !ok {
			continue
		}
		if list, ok := cached.([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// Cards filters the cached card list of a deck by edition. The edition is not
// a cache dimension: only the list for the deck alone is consulted.
func Cards(args Args, r Reader) (any, bool) {
	deck := args.String("deck")
	edition := args.String("edition")
	if deck == "" || edition == "" {
		return nil, false
	}

	cached, ok := r.ReadQuery(schema.CardsQuery, map[string]any{"deck": deck})
	if !ok {
		return nil, false
	}
	list, ok := cached.([]any)
	if !ok {
		return nil, false
	}

	filtered := make([]any, 0, len(list))
	for _, item := range list {
		card, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		if card["edition"] == edition {
			filtered = append(filtered, card)
		}
	}
	return filtered, true
}

// CardsByIDs answers a list of cards by id when every card is cached with the
// fields needed to show it.
func CardsByIDs(args Args, r Reader) (any, bool) {
	ids, ok := args.Strings("ids")
	if !ok || len(ids) == 0 {
		return nil, false
	}

	cards := make([]any, 0, len(ids))
	for _, id := range ids {
		ref, ok := r.ToReference(schema.TypeCard, map[string]any{"_id": id})
		if !ok {
			return nil, false
		}
		card, ok := r.ReadFragment(ref, schema.CardByIDFragment)
		if !ok {
			// Card not cached, or cached without the required fields.
			return nil, false
		}
		cards = append(cards, card)
	}
	return cards, true
}

// Deck answers a deck by slug when the deck is cached with all the fields
// needed to render it, even if it arrived as part of another query.
func Deck(args Args, r Reader) (any, bool) {
	slug := args.String("slug")
	if slug == "" {
		return nil, false
	}
	ref, ok := r.ToReference(schema.TypeDeck, map[string]any{"slug": slug})
	if !ok {
		return nil, false
	}
	deck, ok := r.ReadFragment(ref, schema.DeckFragment)
	if !ok {
		return nil, false
	}
	return deck, true
}

// Loser resolves directly to the reference for the requested image, without
// consulting any cached list.
func Loser(args Args, r Reader) (any, bool) {
	img := args.String("img")
	if img == "" {
		return nil, false
	}
	ref, ok := r.ToReference(schema.TypeLoser, map[string]any{"img": img})
	if !ok {
		return nil, false
	}
	return ref, true
}

// Products answers a list of products by id with references, when every
// product is cached.
func Products(args Args, r Reader) (any, bool) {
	ids, ok := args.Strings("ids")
	if !ok || len(ids) == 0 {
		return nil, false
	}

	refs := make([]any, 0, len(ids))
	for _, id := range ids {
		ref, ok := r.ToReference(schema.TypeProduct, map[string]any{"_id": id})
		if !ok {
			return nil, false
		}
		if _, ok = r.ReadFragment(ref, nil); !ok {
			return nil, false
		}
		refs = append(refs, ref)
	}
	return refs, true
}
