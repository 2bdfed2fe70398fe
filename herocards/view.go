package herocards

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/channelqueue"
	"github.com/playingarts/go-libplayingarts/apierror"
	"github.com/playingarts/go-libplayingarts/schema"
)

// State is the display state of a View.
type State int

const (
	// Idle means no deck is shown.
	Idle State = iota
	// Loading means cards are being fetched.
	Loading
	// Resolved means cards are available.
	Resolved
	// Empty means the fetch ended without usable cards.
	Empty
	// TimedOut means the fetch has not ended within the timeout. Cards that
	// arrive later still resolve the view.
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Empty:
		return "empty"
	case TimedOut:
		return "timed-out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the state of a View at one point in time.
type Snapshot struct {
	// Deck is the slug of the deck being shown.
	Deck  string
	State State
	Cards []schema.HeroCard
	// Retry is true when the user should be offered a retry.
	Retry bool
	// Err is the reason a fetch ended without cards.
	Err error
}

// Fetcher fetches hero cards. Coordinator implements Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, slug string) ([]schema.HeroCard, error)
}

// View tracks the hero cards for the deck currently shown. Each call to Show
// starts a new generation; results for an earlier generation are ignored, so a
// slow response for a deck the user has left never replaces the cards of the
// deck now shown.
//
// If a fetch does not end within the timeout, the view moves to TimedOut and
// offers a retry. Abandoned fetches never offer a retry.
type View struct {
	fetcher Fetcher
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	snap   Snapshot
	timer  *time.Timer
	closed bool

	updates *channelqueue.ChannelQueue[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
}

// NewView creates a View that fetches cards from f. A timeout of 0 means
// DefaultTimeout.
func NewView(f Fetcher, timeout time.Duration) *View {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		fetcher: f,
		timeout: timeout,
		updates: channelqueue.New[Snapshot](-1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Show switches the view to a deck and starts fetching its cards. An empty
// slug returns the view to Idle.
func (v *View) Show(slug string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.gen++
	gen := v.gen
	v.stopTimerLocked()

	if slug == "" {
		v.setLocked(Snapshot{State: Idle})
		return
	}

	v.setLocked(Snapshot{Deck: slug, State: Loading})
	v.timer = time.AfterFunc(v.timeout, func() {
		v.expire(gen)
	})
	go v.load(gen, slug)
}

// Retry fetches the cards of the current deck again.
func (v *View) Retry() {
	v.mu.Lock()
	slug := v.snap.Deck
	v.mu.Unlock()

	if slug != "" {
		v.Show(slug)
	}
}

// Snapshot returns the current state of the view.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Updates returns a channel that receives every new state of the view. The
// channel is closed when the view is closed.
func (v *View) Updates() <-chan Snapshot {
	return v.updates.Out()
}

// Close stops the view. Fetches in progress are abandoned and their results
// ignored.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	v.gen++
	v.stopTimerLocked()
	v.cancel()
	close(v.updates.In())
}

func (v *View) load(gen uint64, slug string) {
	cards, err := v.fetcher.Fetch(v.ctx, slug)
	if err == nil && len(cards) == 0 {
		err = ErrInsufficient
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		log.Debugw("Ignoring hero cards for deck no longer shown", "deck", slug)
		return
	}
	v.stopTimerLocked()

	switch {
	case err == nil:
		v.setLocked(Snapshot{Deck: slug, State: Resolved, Cards: cards})
	case apierror.IsAbandoned(err):
		// Stay in Loading without a retry. The next Show or Retry replaces
		// this generation.
		log.Debugw("Hero card fetch abandoned", "deck", slug, "err", err)
		v.setLocked(Snapshot{Deck: slug, State: Loading, Err: err})
	default:
		v.setLocked(Snapshot{Deck: slug, State: Empty, Retry: true, Err: err})
	}
}

func (v *View) expire(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen || v.snap.State != Loading {
		return
	}
	log.Infow("Timed out waiting for hero cards", "deck", v.snap.Deck, "timeout", v.timeout)
	v.setLocked(Snapshot{Deck: v.snap.Deck, State: TimedOut, Retry: true})
}

func (v *View) stopTimerLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *View) setLocked(snap Snapshot) {
	v.snap = snap
	if !v.closed {
		v.updates.In() <- snap
	}
}
