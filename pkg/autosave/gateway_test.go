package autosave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/autosave"
	"github.com/aretw0/easel/pkg/core"
)

// memStore records every write.
type memStore struct {
	mu     sync.Mutex
	writes []core.Snapshot
	fail   error
	stored map[string]core.Snapshot
}

func newMemStore() *memStore {
	return &memStore{stored: make(map[string]core.Snapshot)}
}

func (m *memStore) SaveSnapshot(ctx context.Context, id string, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.writes = append(m.writes, snap)
	m.stored[id] = snap
	return nil
}

func (m *memStore) LoadSnapshot(ctx context.Context, id string) (core.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[id], nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func (m *memStore) last() core.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[len(m.writes)-1]
}

func board(n int) core.Snapshot {
	elems := make([]core.Element, n)
	for i := range elems {
		elems[i] = core.Element{ID: string(rune('a' + i)), Kind: core.KindRectangle}
	}
	return core.NewSnapshot("b", elems...)
}

const delay = 40 * time.Millisecond

func TestGateway_DebounceCollapsesTriggers(t *testing.T) {
	store := newMemStore()
	g := autosave.New("wb", store, autosave.WithDelay(delay))
	defer g.Close(context.Background(), false)

	g.Schedule(board(1))
	time.Sleep(delay / 4)
	g.Schedule(board(2))
	assert.True(t, g.Pending())

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * delay)

	assert.Equal(t, 1, store.count(), "two triggers inside the window produce one write")
	assert.Equal(t, 2, store.last().Len(), "the write carries the later snapshot")
	assert.False(t, g.Pending())
}

func TestGateway_TriggerAfterWindowPersistsIndependently(t *testing.T) {
	store := newMemStore()
	g := autosave.New("wb", store, autosave.WithDelay(delay))
	defer g.Close(context.Background(), false)

	g.Schedule(board(1))
	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)

	g.Schedule(board(2))
	require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, store.last().Len())
}

func TestGateway_RearmsFromLatestTrigger(t *testing.T) {
	store := newMemStore()
	g := autosave.New("wb", store, autosave.WithDelay(4*delay))
	defer g.Close(context.Background(), false)

	// Keep triggering faster than the window; nothing may be written meanwhile.
	for i := 1; i <= 6; i++ {
		g.Schedule(board(i))
		time.Sleep(delay)
		assert.Equal(t, 0, store.count(), "trailing debounce never fires mid-burst")
	}

	require.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 6, store.last().Len())
}

func TestGateway_SaveNowBypassesTimer(t *testing.T) {
	store := newMemStore()
	g := autosave.New("wb", store, autosave.WithDelay(time.Hour))
	defer g.Close(context.Background(), false)

	g.Schedule(board(1))
	require.NoError(t, g.SaveNow(context.Background(), board(3)))

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 3, store.last().Len())
	assert.False(t, g.Pending(), "explicit save supersedes the pending one")
}

func TestGateway_FailureIsReportedNotRetried(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("network down")

	var mu sync.Mutex
	var reported []error
	g := autosave.New("wb", store,
		autosave.WithDelay(delay),
		autosave.WithErrorHandler(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			reported = append(reported, err)
		}),
	)
	defer g.Close(context.Background(), false)

	g.Schedule(board(1))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * delay)
	mu.Lock()
	assert.Len(t, reported, 1, "no automatic retry")
	assert.ErrorIs(t, reported[0], core.ErrPersistence)
	mu.Unlock()

	err := g.SaveNow(context.Background(), board(1))
	assert.ErrorIs(t, err, core.ErrPersistence)

	st := g.State().(autosave.GatewayState)
	assert.Equal(t, 2, st.Failures)
	assert.Equal(t, 0, st.Saves)
}

func TestGateway_Close(t *testing.T) {
	t.Run("Discards Pending Without Flush", func(t *testing.T) {
		store := newMemStore()
		g := autosave.New("wb", store, autosave.WithDelay(delay))

		g.Schedule(board(1))
		require.NoError(t, g.Close(context.Background(), false))
		time.Sleep(3 * delay)

		assert.Equal(t, 0, store.count())
		assert.ErrorIs(t, g.SaveNow(context.Background(), board(1)), autosave.ErrClosed)
	})

	t.Run("Flushes Pending", func(t *testing.T) {
		store := newMemStore()
		g := autosave.New("wb", store, autosave.WithDelay(time.Hour))

		g.Schedule(board(2))
		require.NoError(t, g.Close(context.Background(), true))

		assert.Equal(t, 1, store.count())
		assert.Equal(t, 2, store.last().Len())
	})
}

func TestGateway_Load(t *testing.T) {
	store := newMemStore()
	store.stored["wb"] = board(4)
	g := autosave.New("wb", store)
	defer g.Close(context.Background(), false)

	snap, err := g.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Len())
}
