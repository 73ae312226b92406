package fs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/adapters/fs"
	"github.com/aretw0/easel/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events channel closed early")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return core.Event{}
}

func TestRepository_Watch(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "sprint-*")
	require.NoError(t, err)

	writes := context.Background()
	require.NoError(t, repo.Create(writes, sampleBoard("other", "", "Ignored")))
	require.NoError(t, repo.Create(writes, sampleBoard("sprint-1", "", "Sprint")))

	e := nextEvent(t, events)
	assert.Equal(t, core.EventCreate, e.Type)
	assert.Equal(t, "sprint-1", e.ID)

	title := "Sprint renamed"
	require.NoError(t, repo.Update(writes, "sprint-1", core.Update{Title: &title}))
	e = nextEvent(t, events)
	assert.Equal(t, core.EventModify, e.Type, "atomic rewrite is reported as a modification")

	require.NoError(t, repo.Delete(writes, "sprint-1"))
	e = nextEvent(t, events)
	assert.Equal(t, core.EventDelete, e.Type)

	assert.True(t, repo.State().(fs.RepositoryState).WatcherActive)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "channel closes on cancel")
}

func TestRepository_WatchInvalidPattern(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	_, err := repo.Watch(context.Background(), "[")
	assert.ErrorIs(t, err, core.ErrValidation)
}
