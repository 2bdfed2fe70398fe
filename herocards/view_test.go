package herocards_test

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/playingarts/go-libplayingarts/apierror"
	"github.com/playingarts/go-libplayingarts/herocards"
	"github.com/stretchr/testify/require"
)

func newView(t *testing.T, f herocards.Fetcher, timeout time.Duration) *herocards.View {
	v := herocards.NewView(f, timeout)
	t.Cleanup(v.Close)
	return v
}

func waitState(t *testing.T, v *herocards.View, state herocards.State) herocards.Snapshot {
	require.Eventually(t, func() bool {
		return v.Snapshot().State == state
	}, time.Second, time.Millisecond, "view never reached state %s", state)
	return v.Snapshot()
}

func TestViewResolved(t *testing.T) {
	c := newCoordinator(t, newMockSource(2))
	v := newView(t, c, 0)
	require.Equal(t, herocards.Idle, v.Snapshot().State)

	v.Show("zero")
	snap := waitState(t, v, herocards.Resolved)
	require.Equal(t, "zero", snap.Deck)
	require.Equal(t, heroCards("zero", 2), snap.Cards)
	require.False(t, snap.Retry)

	v.Show("")
	require.Equal(t, herocards.Idle, v.Snapshot().State)
}

func TestViewUpdates(t *testing.T) {
	c := newCoordinator(t, newMockSource(2))
	v := herocards.NewView(c, 0)

	v.Show("zero")
	var states []herocards.State
	for snap := range v.Updates() {
		states = append(states, snap.State)
		if snap.State == herocards.Resolved {
			v.Close()
		}
	}
	require.Equal(t, []herocards.State{herocards.Loading, herocards.Resolved}, states)
}

func TestViewKeySwitch(t *testing.T) {
	src := newMockSource(2)
	releaseA := src.gate("a")
	releaseB := src.gate("b")
	c := newCoordinator(t, src)
	v := newView(t, c, 0)

	v.Show("a")
	v.Show("b")
	require.Eventually(t, func() bool { return src.calls.Load() == 2 }, time.Second, time.Millisecond)

	releaseB()
	snap := waitState(t, v, herocards.Resolved)
	require.Equal(t, "b", snap.Deck)

	// A settles after the view moved on to B.
	releaseA()
	time.Sleep(20 * time.Millisecond)
	snap = v.Snapshot()
	require.Equal(t, "b", snap.Deck)
	require.Equal(t, heroCards("b", 2), snap.Cards)
}

func TestViewTimeoutThenLateResult(t *testing.T) {
	src := newMockSource(2)
	release := src.gate("zero")
	c := newCoordinator(t, src)
	v := newView(t, c, 20*time.Millisecond)

	v.Show("zero")
	snap := waitState(t, v, herocards.TimedOut)
	require.True(t, snap.Retry)

	release()
	snap = waitState(t, v, herocards.Resolved)
	require.False(t, snap.Retry)
	require.Len(t, snap.Cards, 2)
}

func TestViewFailureClasses(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state herocards.State
		retry bool
	}{
		{
			name:  "aborted",
			err:   apierror.ErrAborted,
			state: herocards.Loading,
		},
		{
			name:  "connection reset",
			err:   fmt.Errorf("read tcp: %w", syscall.ECONNRESET),
			state: herocards.Loading,
		},
		{
			name:  "abort message",
			err:   errors.New("The user aborted a request."),
			state: herocards.Loading,
		},
		{
			name:  "server error",
			err:   apierror.New(errors.New("internal error"), 500),
			state: herocards.Empty,
			retry: true,
		},
		{
			name:  "network error",
			err:   errors.New("dial tcp: connection refused"),
			state: herocards.Empty,
			retry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMockSource(2)
			src.failNext(1, tt.err)
			c := newCoordinator(t, src)
			v := newView(t, c, 30*time.Millisecond)

			v.Show("zero")
			require.Eventually(t, func() bool {
				return v.Snapshot().Err != nil
			}, time.Second, time.Millisecond)

			// Wait past the timeout. A settled view never times out.
			time.Sleep(50 * time.Millisecond)
			snap := v.Snapshot()
			require.Equal(t, tt.state, snap.State)
			require.Equal(t, tt.retry, snap.Retry)
			require.ErrorIs(t, snap.Err, tt.err)
		})
	}
}

func TestViewInsufficient(t *testing.T) {
	c := newCoordinator(t, newMockSource(1))
	v := newView(t, c, 0)

	v.Show("zero")
	snap := waitState(t, v, herocards.Empty)
	require.True(t, snap.Retry)
	require.ErrorIs(t, snap.Err, herocards.ErrInsufficient)
}

func TestViewRetry(t *testing.T) {
	src := newMockSource(2)
	src.failNext(1, errors.New("502 bad gateway"))
	c := newCoordinator(t, src)
	v := newView(t, c, 0)

	v.Retry()
	require.Equal(t, herocards.Idle, v.Snapshot().State)

	v.Show("zero")
	waitState(t, v, herocards.Empty)

	v.Retry()
	snap := waitState(t, v, herocards.Resolved)
	require.Equal(t, "zero", snap.Deck)
	require.Equal(t, int32(2), src.calls.Load())
}

func TestViewClose(t *testing.T) {
	src := newMockSource(2)
	src.gate("zero")
	c := newCoordinator(t, src)
	v := herocards.NewView(c, 0)

	v.Show("zero")
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	v.Close()
	v.Close()

	snap := v.Snapshot()
	require.Equal(t, herocards.Loading, snap.State)
	v.Show("one")
	require.Equal(t, "zero", v.Snapshot().Deck)

	// Updates channel is closed after queued states are read.
	for range v.Updates() {
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "timed-out", herocards.TimedOut.String())
	require.Equal(t, "State(9)", herocards.State(9).String())
}
