package test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/playingarts/go-libplayingarts/gqlclient"
	"github.com/stretchr/testify/require"
)

var globalSeed atomic.Int64

var suits = []string{"hearts", "spades", "diamonds", "clubs"}

// RandomSlugs returns n distinct random slugs.
func RandomSlugs(n int) []string {
	rng := rand.New(rand.NewSource(globalSeed.Add(1)))

	slugs := make([]string, n)
	for i := 0; i < n; i++ {
		slugs[i] = fmt.Sprintf("deck-%d-%x", i, rng.Uint32())
	}
	return slugs
}

// RandomHeroCards returns n JSON-shaped hero cards, as returned by the
// heroCards query.
func RandomHeroCards(n int) []any {
	rng := rand.New(rand.NewSource(globalSeed.Add(1)))

	cards := make([]any, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%024x", rng.Uint64())
		artist := fmt.Sprintf("artist-%x", rng.Uint32())
		cards[i] = map[string]any{
			"__typename": "Card",
			"_id":        id,
			"img":        fmt.Sprintf("https://s3.amazonaws.com/playingarts/%s.jpg", id),
			"video":      nil,
			"artist": map[string]any{
				"__typename": "Artist",
				"name":       artist,
				"slug":       artist,
				"country":    nil,
			},
		}
	}
	return cards
}

// RandomCards returns n JSON-shaped cards of deck, as returned by the cards
// query.
func RandomCards(deck string, n int) []any {
	rng := rand.New(rand.NewSource(globalSeed.Add(1)))

	cards := make([]any, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%024x", rng.Uint64())
		artist := fmt.Sprintf("artist-%x", rng.Uint32())
		cards[i] = map[string]any{
			"__typename": "Card",
			"_id":        id,
			"img":        fmt.Sprintf("https://s3.amazonaws.com/playingarts/%s/%s.jpg", deck, id),
			"video":      nil,
			"info":       "",
			"background": nil,
			"value":      fmt.Sprint(2 + rng.Intn(9)),
			"suit":       suits[rng.Intn(len(suits))],
			"edition":    nil,
			"artist": map[string]any{
				"__typename": "Artist",
				"name":       artist,
				"slug":       artist,
				"country":    nil,
			},
		}
	}
	return cards
}

// JSON decodes a JSON document into JSON-shaped Go values.
func JSON(t testing.TB, s string) any {
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// Executor is a fake GraphQL executor that counts the requests made for each
// operation.
type Executor struct {
	handler func(context.Context, gqlclient.Request) (map[string]any, error)

	mu    sync.Mutex
	calls map[string]int
	total atomic.Int32
}

var _ gqlclient.Executor = (*Executor)(nil)

// NewExecutor creates an Executor that answers requests with handler.
func NewExecutor(handler func(context.Context, gqlclient.Request) (map[string]any, error)) *Executor {
	return &Executor{
		handler: handler,
		calls:   make(map[string]int),
	}
}

func (e *Executor) Execute(ctx context.Context, req gqlclient.Request) (map[string]any, error) {
	e.mu.Lock()
	e.calls[req.OperationName]++
	e.mu.Unlock()
	e.total.Add(1)
	return e.handler(ctx, req)
}

// Calls returns the number of requests made for an operation.
func (e *Executor) Calls(operation string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[operation]
}

// Total returns the number of requests made for all operations.
func (e *Executor) Total() int {
	return int(e.total.Load())
}
