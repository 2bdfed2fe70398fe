// Package imgcache keeps the bytes of recently shown images in memory, so
// that images for prefetched data are already loaded when they are displayed.
//
// Warming is fire-and-forget: failures are logged and otherwise ignored, and
// concurrent requests to warm the same URL share one fetch. The number of
// cached images is bounded; the oldest are removed first.
package imgcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
	"github.com/playingarts/go-libplayingarts/apierror"
	"golang.org/x/sync/singleflight"
)

var log = logging.Logger("imgcache")

var ErrClosed = errors.New("image cache closed")

// Cache is a bounded in-memory cache of image bytes keyed by URL.
type Cache struct {
	client     *http.Client
	ds         datastore.Datastore
	group      singleflight.Group
	maxEntries int
	maxSize    int64
	timeout    time.Duration

	mu     sync.Mutex
	order  []datastore.Key
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new image cache.
func New(options ...Option) (*Cache, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	ds := opts.datastore
	if ds == nil {
		ds = dssync.MutexWrap(datastore.NewMapDatastore())
	}

	httpClient := opts.httpClient
	if opts.retryMax != 0 {
		rclient := &retryablehttp.Client{
			HTTPClient:   httpClient,
			Logger:       nil,
			RetryWaitMin: 100 * time.Millisecond,
			RetryWaitMax: time.Second,
			RetryMax:     opts.retryMax,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
		}
		httpClient = rclient.StandardClient()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		client:     httpClient,
		ds:         ds,
		maxEntries: opts.maxEntries,
		maxSize:    opts.maxSize,
		timeout:    opts.timeout,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Key returns the datastore key for an image URL: the base58 encoded sha2-256
// multihash of the URL.
func Key(url string) (datastore.Key, error) {
	mh, err := multihash.Sum([]byte(url), multihash.SHA2_256, -1)
	if err != nil {
		return datastore.Key{}, err
	}
	return datastore.NewKey(base58.Encode(mh)), nil
}

// Warm starts loading each URL that is not already cached, without waiting for
// the loads to finish. Failures are ignored.
func (c *Cache) Warm(urls ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		c.wg.Add(1)
		go func(u string) {
			defer c.wg.Done()
			ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
			defer cancel()
			if _, err := c.Load(ctx, u); err != nil {
				log.Debugw("Cannot warm image", "url", u, "err", err)
			}
		}(u)
	}
}

// Get returns the cached bytes for url, if present.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool) {
	key, err := Key(url)
	if err != nil {
		return nil, false
	}
	data, err := c.ds.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			log.Errorw("Cannot read cached image", "url", url, "err", err)
		}
		return nil, false
	}
	return data, true
}

// Load returns the bytes for url, fetching and caching them if they are not
// already cached. Concurrent loads of the same URL share one fetch.
func (c *Cache) Load(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.Get(ctx, url); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(url, func() (interface{}, error) {
		data, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if err = c.put(ctx, url, data); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apierror.FromResponse(resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("image larger than %d bytes", c.maxSize)
	}
	return data, nil
}

func (c *Cache) put(ctx context.Context, url string, data []byte) error {
	key, err := Key(url)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err = c.ds.Put(ctx, key, data); err != nil {
		return err
	}
	for _, k := range c.order {
		if k == key {
			return nil
		}
	}
	c.order = append(c.order, key)

	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order[0] = datastore.Key{}
		c.order = c.order[1:]
		if err = c.ds.Delete(ctx, oldest); err != nil {
			log.Errorw("Cannot evict cached image", "key", oldest, "err", err)
		}
	}
	return nil
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Close stops all warming in progress, waits for it to end, and closes the
// datastore.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return c.ds.Close()
}
