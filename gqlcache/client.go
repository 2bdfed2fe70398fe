// Package gqlcache is a caching GraphQL client. Responses are normalized into
// an entity store and recorded in a query result cache, and queries are
// answered from those caches, directly or through read policies, whenever the
// cached data is sufficient.
package gqlcache

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/entity"
	"github.com/playingarts/go-libplayingarts/gqlclient"
	"github.com/playingarts/go-libplayingarts/policy"
	"github.com/playingarts/go-libplayingarts/result"
	"github.com/playingarts/go-libplayingarts/schema"
)

var log = logging.Logger("gqlcache")

// FetchPolicy determines how a query uses the cache.
type FetchPolicy int

const (
	// CacheFirst answers from cache when possible, and otherwise queries the
	// network and caches the response.
	CacheFirst FetchPolicy = iota
	// NetworkOnly always queries the network and caches the response.
	NetworkOnly
	// NoCache always queries the network and leaves the cache untouched.
	NoCache
)

func (p FetchPolicy) String() string {
	switch p {
	case CacheFirst:
		return "cache-first"
	case NetworkOnly:
		return "network-only"
	case NoCache:
		return "no-cache"
	}
	return fmt.Sprintf("FetchPolicy(%d)", int(p))
}

// Client answers GraphQL queries from cache or from an Executor.
type Client struct {
	exec    gqlclient.Executor
	store   *entity.Store
	results *result.Cache
	reader  policy.Reader
}

// New creates a new caching client that sends network queries to exec.
func New(exec gqlclient.Executor, options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	store, err := entity.New(entity.WithTypePolicies(opts.typePolicies))
	if err != nil {
		return nil, err
	}
	results := result.New()

	return &Client{
		exec:    exec,
		store:   store,
		results: results,
		reader:  policy.NewReader(store, results, opts.registry),
	}, nil
}

// Query returns the value of the query's root field. With CacheFirst, a value
// that can be read from cache is returned without a network request. A nil
// value with no error means the queried object does not exist.
func (c *Client) Query(ctx context.Context, q schema.Query, vars map[string]any, fetchPolicy FetchPolicy) (any, error) {
	if fetchPolicy == CacheFirst {
		if data, ok := c.reader.ReadQuery(q, vars); ok {
			log.Debugw("Answered from cache", "query", q.Name, "vars", vars)
			return data, nil
		}
	}

	resp, err := c.exec.Execute(ctx, gqlclient.Request{
		OperationName: q.Name,
		Query:         q.Document,
		Variables:     vars,
	})
	if err != nil {
		return nil, err
	}
	raw, ok := resp[q.Field]
	if !ok {
		return nil, fmt.Errorf("response for %s is missing field %s", q.Name, q.Field)
	}
	if fetchPolicy == NoCache {
		return raw, nil
	}
	return c.write(q, vars, raw), nil
}

// write caches raw as the result of q and returns the value read back from
// cache. If the value cannot be read back, because raw does not contain all
// fields the query selects, then raw is returned.
func (c *Client) write(q schema.Query, vars map[string]any, raw any) any {
	norm := c.store.Normalize(raw)
	c.results.Put(q.Field, vars, norm)
	if norm == nil {
		return nil
	}
	data, ok := c.store.Denormalize(norm, q.Selection)
	if !ok {
		log.Warnw("Response does not contain all selected fields", "query", q.Name)
		return raw
	}
	return data
}

// ReadQuery reads the value of a query from cache only. Returns false if the
// cached data is not sufficient to answer the query.
func (c *Client) ReadQuery(q schema.Query, vars map[string]any) (any, bool) {
	return c.reader.ReadQuery(q, vars)
}

// WriteQuery writes data to the cache as the value of a query, as if it had
// been returned from the network.
func (c *Client) WriteQuery(q schema.Query, vars map[string]any, data any) {
	c.write(q, vars, data)
}

// ReadFragment reads the fields selected by frag from the cached object of
// typeName identified by keyFields.
func (c *Client) ReadFragment(typeName string, keyFields map[string]any, frag entity.Fragment) (map[string]any, bool) {
	ref, ok := c.store.ToReference(typeName, keyFields)
	if !ok {
		return nil, false
	}
	return c.store.ReadFragment(ref, frag)
}

// WriteFragment merges fields into the cached object of typeName.
func (c *Client) WriteFragment(typeName string, fields map[string]any) entity.Key {
	return c.store.Merge(typeName, fields)
}

// Subscribe returns a channel that receives a change each time the cached
// result of a query is written. Call the returned cancel function to end the
// subscription.
func (c *Client) Subscribe(q schema.Query, vars map[string]any) (<-chan result.Change, context.CancelFunc) {
	return c.results.Subscribe(result.NewFingerprint(q.Field, vars))
}

// Store returns the entity store.
func (c *Client) Store() *entity.Store {
	return c.store
}

// Results returns the query result cache.
func (c *Client) Results() *result.Cache {
	return c.results
}

// Reset empties the cache.
func (c *Client) Reset() {
	c.results.Reset()
	c.store.Reset()
}

// Close ends all cache subscriptions.
func (c *Client) Close() {
	c.results.Close()
	c.store.Close()
}

func (c *Client) String() string {
	return fmt.Sprintf("gqlcache(%v)", c.exec)
}
