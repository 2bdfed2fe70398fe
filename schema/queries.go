package schema

import "github.com/playingarts/go-libplayingarts/entity"

// Query is a GraphQL operation with a single root field.
type Query struct {
	// Name is the operation name sent to the server.
	Name string
	// Field is the root field queried. Results are cached by field and
	// variables.
	Field string
	// Document is the GraphQL text of the operation. Every selection set
	// requests __typename so that returned objects can be normalized.
	Document string
	// Selection is the fragment read from the cache for the root field value.
	// It must select the same fields as Document.
	Selection entity.Fragment
}

// ArtistFragment selects the artist fields shown alongside a card.
var ArtistFragment = entity.Fragment{
	"name":    nil,
	"slug":    nil,
	"country": nil,
}

const artistFields = `{ __typename name slug country }`

// DeckFragment selects the deck fields needed to render a deck page.
var DeckFragment = entity.Fragment{
	"_id":               nil,
	"slug":              nil,
	"title":             nil,
	"info":              nil,
	"short":             nil,
	"image":             nil,
	"cardBackground":    nil,
	"openseaCollection": nil,
	"editions":          nil,
	"product":           nil,
}

const deckFields = `{ __typename _id slug title info short image cardBackground
      openseaCollection { name address } editions { img name url }
      product { __typename _id image status } }`

// CardFragment selects the card fields needed for deck listings and card
// pages.
var CardFragment = entity.Fragment{
	"_id":        nil,
	"img":        nil,
	"video":      nil,
	"info":       nil,
	"background": nil,
	"value":      nil,
	"suit":       nil,
	"edition":    nil,
	"artist":     ArtistFragment,
}

const cardFields = `{ __typename _id img video info background value suit edition
      artist ` + artistFields + ` }`

// CardByIDFragment selects the fields a card needs in order to be shown when
// it was looked up by id.
var CardByIDFragment = entity.Fragment{
	"_id":     nil,
	"img":     nil,
	"video":   nil,
	"edition": nil,
	"artist":  ArtistFragment,
}

// HeroCardFragment selects the fields shown in a deck hero.
var HeroCardFragment = entity.Fragment{
	"_id":    nil,
	"img":    nil,
	"video":  nil,
	"artist": ArtistFragment,
}

var (
	DecksQuery = Query{
		Name:      "Decks",
		Field:     "decks",
		Document:  `query Decks { decks ` + deckFields + ` }`,
		Selection: DeckFragment,
	}

	DeckQuery = Query{
		Name:      "Deck",
		Field:     "deck",
		Document:  `query Deck($slug: String!) { deck(slug: $slug) ` + deckFields + ` }`,
		Selection: DeckFragment,
	}

	CardsQuery = Query{
		Name:  "Cards",
		Field: "cards",
		Document: `query Cards($deck: ID, $losers: Boolean, $edition: String) {
  cards(deck: $deck, losers: $losers, edition: $edition) ` + cardFields + ` }`,
		Selection: CardFragment,
	}

	CardQuery = Query{
		Name:  "Card",
		Field: "card",
		Document: `query Card($id: ID, $slug: String, $deckSlug: String) {
  card(id: $id, slug: $slug, deckSlug: $deckSlug) ` + cardFields + ` }`,
		Selection: CardFragment,
	}

	CardsByIDsQuery = Query{
		Name:  "CardsByIds",
		Field: "cardsByIds",
		Document: `query CardsByIds($ids: [ID!]!) {
  cardsByIds(ids: $ids) { __typename _id img video edition artist ` + artistFields + ` } }`,
		Selection: CardByIDFragment,
	}

	// HeroCardsQuery returns a random sample of cards for a deck on every
	// request, so its results must never be served from cache.
	HeroCardsQuery = Query{
		Name:  "HeroCardsLite",
		Field: "heroCards",
		Document: `query HeroCardsLite($deck: ID, $slug: String) {
  heroCards(deck: $deck, slug: $slug) { __typename _id img video artist ` + artistFields + ` } }`,
		Selection: HeroCardFragment,
	}

	ProductsQuery = Query{
		Name:      "Products",
		Field:     "products",
		Document:  `query Products($ids: [ID!]) { products(ids: $ids) { __typename _id title short status image } }`,
		Selection: entity.Fragment{"_id": nil, "title": nil, "short": nil, "status": nil, "image": nil},
	}

	LoserQuery = Query{
		Name:      "Loser",
		Field:     "loser",
		Document:  `query Loser($img: String) { loser(img: $img) { __typename img } }`,
		Selection: entity.Fragment{"img": nil},
	}
)
