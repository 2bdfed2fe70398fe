// Package schema defines the deck, card, and artist types served by the
// Playing Arts GraphQL API, how their objects are identified in the entity
// store, and the queries issued against the API.
package schema

import (
	"encoding/json"
	"fmt"
)

const (
	TypeDeck       = "Deck"
	TypeCard       = "Card"
	TypeArtist     = "Artist"
	TypeProduct    = "Product"
	TypeOpensea    = "Opensea"
	TypeHolders    = "Holders"
	TypeOwnedAsset = "OwnedAsset"
	TypeLoser      = "Loser"
)

type Social struct {
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Behance   string `json:"behance,omitempty"`
	Dribbble  string `json:"dribbble,omitempty"`
}

type Artist struct {
	Name    string  `json:"name,omitempty"`
	Slug    string  `json:"slug"`
	Country string  `json:"country,omitempty"`
	Userpic string  `json:"userpic,omitempty"`
	Info    string  `json:"info,omitempty"`
	Social  *Social `json:"social,omitempty"`
}

type Edition struct {
	Img  string `json:"img,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Deck struct {
	ID              string    `json:"_id,omitempty"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title,omitempty"`
	Info            string    `json:"info,omitempty"`
	Short           string    `json:"short,omitempty"`
	Image           string    `json:"image,omitempty"`
	CardBackground  string    `json:"cardBackground,omitempty"`
	BackgroundImage string    `json:"backgroundImage,omitempty"`
	Labels          []string  `json:"labels,omitempty"`
	Editions        []Edition `json:"editions,omitempty"`
}

type Card struct {
	ID         string  `json:"_id"`
	Img        string  `json:"img,omitempty"`
	Video      string  `json:"video,omitempty"`
	Info       string  `json:"info,omitempty"`
	Background string  `json:"background,omitempty"`
	Value      string  `json:"value,omitempty"`
	Suit       string  `json:"suit,omitempty"`
	Edition    string  `json:"edition,omitempty"`
	Artist     *Artist `json:"artist,omitempty"`
	Deck       *Deck   `json:"deck,omitempty"`
}

// HeroCard is a card shown in a deck page hero. DeckSlug records the deck the
// card was fetched for, so that a consumer can tell whether the card still
// belongs to the deck being shown.
type HeroCard struct {
	ID       string  `json:"_id"`
	Img      string  `json:"img"`
	Video    string  `json:"video,omitempty"`
	Artist   *Artist `json:"artist,omitempty"`
	DeckSlug string  `json:"deckSlug,omitempty"`
}

// Decode converts JSON-shaped query data, as returned from a cache read or
// network fetch, into dst.
func Decode(data any, dst any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot encode query data: %w", err)
	}
	if err = json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("cannot decode query data: %w", err)
	}
	return nil
}
