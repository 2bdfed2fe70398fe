package policy

import (
	"github.com/playingarts/go-libplayingarts/entity"
	"github.com/playingarts/go-libplayingarts/result"
	"github.com/playingarts/go-libplayingarts/schema"
)

type cacheReader struct {
	store    *entity.Store
	results  *result.Cache
	registry *Registry
}

// NewReader returns a Reader over store and results that applies the
// policies in registry when reading queries.
func NewReader(store *entity.Store, results *result.Cache, registry *Registry) Reader {
	return &cacheReader{
		store:    store,
		results:  results,
		registry: registry,
	}
}

func (r *cacheReader) ToReference(typeName string, keyFields map[string]any) (entity.Reference, bool) {
	return r.store.ToReference(typeName, keyFields)
}

func (r *cacheReader) ReadFragment(ref entity.Reference, frag entity.Fragment) (map[string]any, bool) {
	return r.store.ReadFragment(ref, frag)
}

func (r *cacheReader) ReadQuery(q schema.Query, vars map[string]any) (any, bool) {
	data, ok := r.registry.Read(q.Field, Args(vars), r)
	if !ok {
		data, ok = r.results.Get(q.Field, vars)
		if !ok {
			return nil, false
		}
	}
	if data == nil {
		return nil, true
	}
	return r.store.Denormalize(data, q.Selection)
}
