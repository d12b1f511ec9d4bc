package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (r *recordingObserver) OnMessage(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("+254700", "hello", 0)
	assert.NotEmpty(t, e.ID)
	assert.Positive(t, e.Timestamp)

	e = NewEntry("+254700", "hello", 1700000000000)
	assert.Equal(t, int64(1700000000000), e.Timestamp)
}

func TestCapture_ImmediateForwardsToObserver(t *testing.T) {
	m := New()
	obs := &recordingObserver{}
	m.SetObserver(obs)

	mode, err := m.Capture(context.Background(), NewEntry("A", "one", 1))

	require.NoError(t, err)
	assert.Equal(t, ModeImmediate, mode)
	assert.Len(t, obs.entries, 1)
	assert.Zero(t, m.Len())
}

func TestCapture_ImmediateWithoutObserverBuffers(t *testing.T) {
	m := New()

	mode, err := m.Capture(context.Background(), NewEntry("A", "one", 1))

	require.NoError(t, err)
	assert.Equal(t, ModeBuffered, mode)
	assert.Equal(t, 1, m.Len())
}

func TestCapture_ImmediateObserverError(t *testing.T) {
	m := New()
	m.SetObserver(&recordingObserver{err: errors.New("down")})

	_, err := m.Capture(context.Background(), NewEntry("A", "one", 1))

	assert.EqualError(t, err, "down")
	assert.Zero(t, m.Len())
}

func TestCapture_BufferedStores(t *testing.T) {
	m := New()
	obs := &recordingObserver{}
	m.SetObserver(obs)
	m.SetMode(ModeBuffered)

	mode, err := m.Capture(context.Background(), NewEntry("A", "one", 1))

	require.NoError(t, err)
	assert.Equal(t, ModeBuffered, mode)
	assert.Empty(t, obs.entries)
	assert.Equal(t, 1, m.Len())
}

func TestDrain_InterleavedSourcesKeepArrivalOrder(t *testing.T) {
	m := New()
	m.SetMode(ModeBuffered)
	ctx := context.Background()

	_, _ = m.Capture(ctx, NewEntry("A", "a1", 1))
	_, _ = m.Capture(ctx, NewEntry("B", "b1", 2))
	_, _ = m.Capture(ctx, NewEntry("A", "a2", 3))

	got := m.Drain()

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a1", "b1", "a2"}, []string{got[0].Body, got[1].Body, got[2].Body})
	assert.Empty(t, m.Drain())
	assert.NotNil(t, m.Drain())
}

func TestDrain_ConcurrentCapturesDeliveredOnce(t *testing.T) {
	const n = 200
	m := New()
	m.SetMode(ModeBuffered)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = m.Capture(context.Background(), NewEntry(fmt.Sprintf("S%d", i%4), fmt.Sprintf("m%d", i), int64(i+1)))
		}(i)
	}
	wg.Wait()

	first := m.Drain()
	assert.Len(t, first, n)
	assert.Empty(t, m.Drain())

	seen := make(map[string]struct{}, n)
	for _, e := range first {
		seen[e.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestDrain_ConcurrentWithCaptureLosesNothing(t *testing.T) {
	const n = 500
	m := New()
	m.SetMode(ModeBuffered)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		drained int
	)
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				got := m.Drain()
				mu.Lock()
				drained += len(got)
				mu.Unlock()
			}
		}
	}()

	for i := 0; i < n; i++ {
		_, _ = m.Capture(context.Background(), NewEntry("A", "x", int64(i+1)))
	}
	close(done)
	wg.Wait()

	drained += len(m.Drain())
	assert.Equal(t, n, drained)
}

func TestCaptureBatch_Contiguous(t *testing.T) {
	m := New()
	m.SetMode(ModeBuffered)
	ctx := context.Background()

	_, _ = m.Capture(ctx, NewEntry("B", "before", 1))
	mode, err := m.CaptureBatch(ctx, []Entry{NewEntry("A", "part1", 2), NewEntry("A", "part2", 2)})
	require.NoError(t, err)
	assert.Equal(t, ModeBuffered, mode)

	got := m.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "part1", got[1].Body)
	assert.Equal(t, "part2", got[2].Body)
}

func TestCaptureBatch_ImmediateForwardsInOrder(t *testing.T) {
	m := New()
	obs := &recordingObserver{}
	m.SetObserver(obs)

	_, err := m.CaptureBatch(context.Background(), []Entry{NewEntry("A", "1", 1), NewEntry("A", "2", 1)})

	require.NoError(t, err)
	require.Len(t, obs.entries, 2)
	assert.Equal(t, "1", obs.entries[0].Body)
}

func TestPeekAndClear(t *testing.T) {
	m := New()
	m.SetMode(ModeBuffered)
	_, _ = m.Capture(context.Background(), NewEntry("A", "one", 1))
	_, _ = m.Capture(context.Background(), NewEntry("A", "two", 2))

	peeked := m.Peek()
	assert.Len(t, peeked, 2)
	assert.Equal(t, 2, m.Len())

	assert.Equal(t, 2, m.Clear())
	assert.Zero(t, m.Len())
	assert.Zero(t, m.Clear())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "immediate", ModeImmediate.String())
	assert.Equal(t, "buffered", ModeBuffered.String())
}
