// Package herocards coordinates fetching the hero cards shown at the top of a
// deck page.
//
// Concurrent fetches for the same deck share one request. Decks the user is
// likely to open next can be prefetched, and the prefetched result is handed
// to the first fetch for that deck. Fetch failures are not fatal: a consumer
// sees either usable cards or a single "no usable data" outcome, and a View
// turns that into a retry affordance.
package herocards

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/playingarts/go-libplayingarts/apierror"
	"github.com/playingarts/go-libplayingarts/schema"
)

var log = logging.Logger("herocards")

var (
	// ErrInsufficient is returned when a fetch succeeds with too few cards to
	// show.
	ErrInsufficient = errors.New("not enough hero cards")
	ErrClosed       = errors.New("hero card coordinator closed")
)

// Coordinator deduplicates and prefetches hero card requests.
type Coordinator struct {
	source    Source
	warmer    Warmer
	minItems  int
	recentTTL time.Duration
	retries   int

	mu         sync.Mutex
	closed     bool
	inflight   map[string]*call
	prefetched map[string][]schema.HeroCard
	recent     map[string]recentEntry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// call is a request in progress. Its fields are written once, before done is
// closed.
type call struct {
	done  chan struct{}
	cards []schema.HeroCard
	err   error
}

type recentEntry struct {
	cards   []schema.HeroCard
	expires time.Time
}

// New creates a new Coordinator that fetches hero cards from src.
func New(src Source, options ...Option) (*Coordinator, error) {
	if src == nil {
		return nil, errors.New("nil source")
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		source:     src,
		warmer:     opts.warmer,
		minItems:   opts.minItems,
		recentTTL:  opts.recentTTL,
		retries:    opts.retries,
		inflight:   make(map[string]*call),
		prefetched: make(map[string][]schema.HeroCard),
		recent:     make(map[string]recentEntry),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Fetch returns the hero cards for a deck. A prefetched result is returned,
// and consumed, first. Otherwise, a request already in progress for the deck
// is awaited, or a new one is started.
//
// The request itself is not tied to ctx: if ctx is done, Fetch returns
// ctx.Err() and the request continues for any other waiters.
func (c *Coordinator) Fetch(ctx context.Context, slug string) ([]schema.HeroCard, error) {
	if slug == "" {
		return nil, errors.New("empty deck slug")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if cards, ok := c.prefetched[slug]; ok {
		delete(c.prefetched, slug)
		c.mu.Unlock()
		log.Debugw("Using prefetched hero cards", "deck", slug)
		return cards, nil
	}
	if cards, ok := c.recentLocked(slug); ok {
		c.mu.Unlock()
		log.Debugw("Using recent hero cards", "deck", slug)
		return cards, nil
	}
	cl, joined := c.inflight[slug]
	if !joined {
		cl = c.startLocked(slug, false)
	}
	c.mu.Unlock()

	select {
	case <-cl.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if joined {
		// The awaited request may have been a prefetch, which leaves its
		// result for the next fetch. This fetch has consumed it.
		c.mu.Lock()
		delete(c.prefetched, slug)
		c.mu.Unlock()
	}
	return cl.cards, cl.err
}

// FetchFor returns the hero cards for a deck, or nil if no usable cards could
// be fetched for any reason.
func (c *Coordinator) FetchFor(ctx context.Context, slug string) []schema.HeroCard {
	cards, err := c.Fetch(ctx, slug)
	if err != nil {
		if apierror.IsAbandoned(err) {
			log.Debugw("Hero card fetch abandoned", "deck", slug, "err", err)
		} else {
			log.Infow("Cannot get hero cards", "deck", slug, "err", err)
		}
		return nil
	}
	return cards
}

// Prefetch starts fetching hero cards for a deck in the background, unless a
// prefetched result or a request for the deck already exists. A successful
// result is kept for the next Fetch of the deck. A failure keeps nothing.
func (c *Coordinator) Prefetch(slug string) {
	if slug == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if _, ok := c.prefetched[slug]; ok {
		return
	}
	if _, ok := c.inflight[slug]; ok {
		return
	}
	c.startLocked(slug, true)
}

// Prefetched reports whether a prefetched result for the deck is waiting to be
// consumed.
func (c *Coordinator) Prefetched(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.prefetched[slug]
	return ok
}

// Close stops all requests in progress and waits for them to end. Fetches
// waiting on those requests return an error.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.prefetched = make(map[string][]schema.HeroCard)
	c.recent = make(map[string]recentEntry)
	c.mu.Unlock()
}

func (c *Coordinator) String() string {
	return fmt.Sprint("hero cards from ", c.source)
}

// startLocked registers a new request for slug and runs it in the background.
// The request is registered before the lock is released, so that concurrent
// callers find it.
func (c *Coordinator) startLocked(slug string, prefetch bool) *call {
	cl := &call{
		done: make(chan struct{}),
	}
	c.inflight[slug] = cl

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(slug, cl, prefetch)
	}()
	return cl
}

func (c *Coordinator) run(slug string, cl *call, prefetch bool) {
	cards, err := c.fetchRetry(slug)

	c.mu.Lock()
	if c.inflight[slug] == cl {
		delete(c.inflight, slug)
	}
	if err == nil && !c.closed {
		if prefetch {
			c.prefetched[slug] = cards
		}
		if c.recentTTL != 0 {
			c.recent[slug] = recentEntry{
				cards:   cards,
				expires: time.Now().Add(c.recentTTL),
			}
		}
	}
	cl.cards, cl.err = cards, err
	close(cl.done)
	c.mu.Unlock()

	if err != nil {
		log.Debugw("Hero card request failed", "deck", slug, "prefetch", prefetch, "err", err)
		return
	}
	c.warm(cards)
}

func (c *Coordinator) fetchRetry(slug string) ([]schema.HeroCard, error) {
	var err error
	for attempt := 0; ; attempt++ {
		var cards []schema.HeroCard
		cards, err = c.fetchOnce(slug)
		if err == nil {
			return cards, nil
		}
		if attempt >= c.retries || apierror.IsAbandoned(err) || c.ctx.Err() != nil {
			break
		}
		log.Warnw("Retrying hero card request", "deck", slug, "attempt", attempt+1, "err", err)
	}
	return nil, err
}

func (c *Coordinator) fetchOnce(slug string) (cards []schema.HeroCard, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("Hero card source failed", "source", c.source, "deck", slug, "err", fmt.Sprint(rec))
			cards, err = nil, fmt.Errorf("hero card source failed: %v", rec)
		}
	}()

	cards, err = c.source.Fetch(c.ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(cards) < c.minItems {
		return nil, fmt.Errorf("%w: got %d for deck %s", ErrInsufficient, len(cards), slug)
	}
	return cards, nil
}

func (c *Coordinator) recentLocked(slug string) ([]schema.HeroCard, bool) {
	if c.recentTTL == 0 {
		return nil, false
	}
	ent, ok := c.recent[slug]
	if !ok {
		return nil, false
	}
	if time.Now().After(ent.expires) {
		delete(c.recent, slug)
		return nil, false
	}
	return ent.cards, true
}

func (c *Coordinator) warm(cards []schema.HeroCard) {
	if c.warmer == nil {
		return
	}
	urls := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.Img != "" {
			urls = append(urls, card.Img)
		}
	}
	c.warmer.Warm(urls...)
}
