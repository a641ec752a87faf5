package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthire/agenthire-go/pkg/errs"
)

// fakeEventSource feeds a pre-seeded channel and records teardown.
type fakeEventSource struct {
	ch           chan Event
	query        string
	unsubscribed bool
}

func (f *fakeEventSource) Subscribe(ctx context.Context, query string) (<-chan Event, func(), error) {
	f.query = query
	return f.ch, func() { f.unsubscribed = true }, nil
}

func TestWaitForEventMatch(t *testing.T) {
	src := &fakeEventSource{ch: make(chan Event, 2)}
	src.ch <- Event{Attrs: map[string][]string{AttrJobID: {"1"}}}
	src.ch <- Event{Attrs: map[string][]string{AttrJobID: {"2"}}}

	ev, err := WaitForEvent(context.Background(), src, "q", time.Second, func(ev Event) bool {
		id, _ := ev.JobID()
		return id == 2
	})
	require.NoError(t, err)
	id, _ := ev.JobID()
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, "q", src.query)
	assert.True(t, src.unsubscribed, "subscription must be torn down after a match")
}

func TestWaitForEventTimeout(t *testing.T) {
	src := &fakeEventSource{ch: make(chan Event)}

	_, err := WaitForEvent(context.Background(), src, "q", 50*time.Millisecond, func(Event) bool {
		return true
	})
	require.Error(t, err)
	assert.True(t, errs.IsTimeout(err))
	assert.True(t, src.unsubscribed, "subscription must be torn down on timeout")
}

func TestWaitForEventStreamClosed(t *testing.T) {
	src := &fakeEventSource{ch: make(chan Event)}
	close(src.ch)

	_, err := WaitForEvent(context.Background(), src, "q", time.Second, func(Event) bool {
		return true
	})
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
	assert.True(t, src.unsubscribed)
}

func TestWaitForEventContextCancelled(t *testing.T) {
	src := &fakeEventSource{ch: make(chan Event)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForEvent(ctx, src, "q", time.Second, func(Event) bool { return true })
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
	assert.True(t, src.unsubscribed)
}
