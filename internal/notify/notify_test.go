package notify_test

import (
	"testing"
	"time"

	"github.com/playingarts/go-libplayingarts/internal/notify"
	"github.com/stretchr/testify/require"
)

const timeout = time.Second

func TestPublishByKey(t *testing.T) {
	hub := notify.NewHub[int]()
	defer hub.Close()

	deckCh, cancelDeck := hub.Subscribe("deck")
	defer cancelDeck()
	allCh, cancelAll := hub.Subscribe(notify.AllKeys)
	defer cancelAll()
	require.Equal(t, 2, hub.Len())

	hub.Publish("deck", 1)
	hub.Publish("card", 2)

	select {
	case v := <-deckCh:
		require.Equal(t, 1, v)
	case <-time.After(timeout):
		t.Fatal("timed out waiting for deck change")
	}
	select {
	case v := <-deckCh:
		t.Fatalf("unexpected value %d for deck subscriber", v)
	case <-time.After(50 * time.Millisecond):
	}

	for _, want := range []int{1, 2} {
		select {
		case v := <-allCh:
			require.Equal(t, want, v)
		case <-time.After(timeout):
			t.Fatal("timed out waiting for change")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := notify.NewHub[string]()
	defer hub.Close()

	ch, cancel := hub.Subscribe("k")
	hub.Publish("k", "queued")
	cancel()
	cancel()
	require.Zero(t, hub.Len())

	// Queued value is still delivered before close.
	v, ok := <-ch
	require.True(t, ok)
	require.Equal(t, "queued", v)
	_, ok = <-ch
	require.False(t, ok)

	// Publishing without subscribers does nothing.
	hub.Publish("k", "dropped")
}

func TestClose(t *testing.T) {
	hub := notify.NewHub[int]()
	ch, cancel := hub.Subscribe("k")
	hub.Close()
	hub.Close()
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(timeout):
		t.Fatal("channel not closed")
	}

	ch, _ = hub.Subscribe("k")
	_, ok := <-ch
	require.False(t, ok)
}
