// Package result caches query results by fingerprint: the queried field and
// its variables. Cached data is the normalized form of a result, so entities
// within it are references into an entity store.
package result

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/playingarts/go-libplayingarts/internal/notify"
)

// Fingerprint identifies a cached result by field name and canonical
// variables.
type Fingerprint string

// NewFingerprint returns the fingerprint for a field queried with vars.
// Variables with nil values are dropped, and the remaining variables are
// encoded with sorted keys, so equal variable sets always produce the same
// fingerprint, e.g. cards({"deck":"zero","edition":"chromatic"}).
func NewFingerprint(field string, vars map[string]any) Fingerprint {
	if len(vars) == 0 {
		return Fingerprint(field)
	}
	clean := make(map[string]any, len(vars))
	for name, val := range vars {
		if val != nil {
			clean[name] = val
		}
	}
	if len(clean) == 0 {
		return Fingerprint(field)
	}
	// encoding/json writes map keys in sorted order.
	data, err := json.Marshal(clean)
	if err != nil {
		// Variables are JSON scalars and lists, so this does not happen.
		return Fingerprint(field + "(?)")
	}
	return Fingerprint(field + "(" + string(data) + ")")
}

// Change is published whenever the entry for a fingerprint is written or
// removed. Removed is set only by Reset.
type Change struct {
	Fingerprint Fingerprint
	Removed     bool
}

// Cache maps fingerprints to result data. An entry is replaced only by a new
// write for the same fingerprint. Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]any

	hub *notify.Hub[Change]
}

// New creates a new empty result cache.
func New() *Cache {
	return &Cache{
		entries: make(map[Fingerprint]any),
		hub:     notify.NewHub[Change](),
	}
}

// Close ends all change subscriptions.
func (c *Cache) Close() {
	c.hub.Close()
}

// Get returns the data cached for field and vars.
//
// Do not modify the returned data.
func (c *Cache) Get(field string, vars map[string]any) (any, bool) {
	return c.GetFingerprint(NewFingerprint(field, vars))
}

// GetFingerprint returns the data cached under fp.
func (c *Cache) GetFingerprint(fp Fingerprint) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[fp]
	return data, ok
}

// Put caches data for field and vars, replacing any previous entry.
func (c *Cache) Put(field string, vars map[string]any, data any) Fingerprint {
	fp := NewFingerprint(field, vars)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = data
	c.hub.Publish(string(fp), Change{Fingerprint: fp})
	return fp
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset removes all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.entries
	c.entries = make(map[Fingerprint]any)
	for fp := range old {
		c.hub.Publish(string(fp), Change{Fingerprint: fp, Removed: true})
	}
}

// Subscribe creates a channel that receives a Change whenever the entry for
// fp is written. Subscribing to the empty fingerprint receives all changes.
func (c *Cache) Subscribe(fp Fingerprint) (<-chan Change, context.CancelFunc) {
	return c.hub.Subscribe(string(fp))
}
