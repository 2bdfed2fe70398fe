// Package policy answers queries from cached data that was fetched for other
// queries, so that navigating between views of already loaded data needs no
// network round trip.
//
// A read policy is registered for a root query field. It is given the
// variables the field was queried with and read-only access to the entity
// store and result cache. It either answers the query or defers to the
// network. Policies never write to either store, never call the network, and
// given unchanged cached data always give the same answer.
package policy

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/entity"
	"github.com/playingarts/go-libplayingarts/schema"
)

var log = logging.Logger("policy")

// Args are the variables a field was queried with.
type Args map[string]any

// String returns the named variable if it is a non-empty string, or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Strings returns the named variable if it is a list of strings.
func (a Args) Strings(name string) ([]string, bool) {
	switch v := a[name].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// Reader is read-only access to cached data.
type Reader interface {
	// ToReference builds a reference to the object of typeName identified by
	// keyFields. The object need not be cached.
	ToReference(typeName string, keyFields map[string]any) (entity.Reference, bool)
	// ReadFragment reads fields of a cached object. Returns false if the
	// object or any selected field is not cached.
	ReadFragment(ref entity.Reference, frag entity.Fragment) (map[string]any, bool)
	// ReadQuery reads the result of a query from cache, applying any read
	// policy registered for its field. Returns false on a cache miss.
	ReadQuery(q schema.Query, vars map[string]any) (any, bool)
}

// Func answers a query field from cached data. It returns false to defer to
// the network. Returning true with a nil value answers the query with "not
// found".
type Func func(args Args, r Reader) (any, bool)

// Registry holds the read policies for query fields.
type Registry struct {
	policies map[string]Func
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		policies: make(map[string]Func),
	}
}

// Default creates a registry with the read policies for the Playing Arts API.
func Default() *Registry {
	r := New()
	r.Register(schema.CardQuery.Field, Card)
	r.Register(schema.CardsQuery.Field, Cards)
	r.Register(schema.CardsByIDsQuery.Field, CardsByIDs)
	r.Register(schema.DeckQuery.Field, Deck)
	r.Register(schema.LoserQuery.Field, Loser)
	r.Register(schema.ProductsQuery.Field, Products)
	return r
}

// Register sets the read policy for field, replacing any previous policy.
// Register all policies before the registry is used.
func (r *Registry) Register(field string, fn Func) {
	r.policies[field] = fn
}

// Has reports whether a policy is registered for field.
func (r *Registry) Has(field string) bool {
	_, ok := r.policies[field]
	return ok
}

// Read applies the policy registered for field. Returns false if there is no
// policy, if the policy defers, or if the policy fails on malformed cached
// data.
func (r *Registry) Read(field string, args Args, rd Reader) (data any, ok bool) {
	fn, found := r.policies[field]
	if !found {
		return nil, false
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("Read policy failed, deferring to network", "field", field, "err", fmt.Sprint(rec))
			data, ok = nil, false
		}
	}()
	return fn(args, rd)
}
