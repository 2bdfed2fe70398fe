package schema

import "github.com/playingarts/go-libplayingarts/entity"

// TypePolicies returns the entity store policy for every normalized type.
//
// Decks and artists are identified by slug, cards and products by database id.
// Holders have no identity and are always stored inline in their parent.
func TypePolicies() map[string]entity.TypePolicy {
	return map[string]entity.TypePolicy{
		TypeDeck: {
			KeyFields: []string{"slug"},
			Nullable:  []string{"openseaCollection", "editions", "product"},
		},
		TypeCard: {
			KeyFields: []string{"_id"},
			Nullable:  []string{"erc1155"},
		},
		TypeArtist: {
			KeyFields: []string{"slug"},
			Nullable:  []string{"podcast", "social"},
		},
		TypeProduct: {
			KeyFields: []string{"_id"},
			Nullable:  []string{"price"},
		},
		// Opensea data is keyed by deck id and changes often.
		TypeOpensea:    {KeyFields: []string{"id"}},
		TypeHolders:    {},
		TypeOwnedAsset: {KeyFields: []string{"identifier"}},
		TypeLoser:      {KeyFields: []string{"img"}},
	}
}
