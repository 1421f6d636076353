package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatal(err)
		}
	})
	return store
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	req := DefaultRequest()
	req.Format = FormatCSV
	task, err := NewTask(req, []byte(`{"op":"reduce","reducer":"mean"}`))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, task))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReady, got.State)
	assert.Equal(t, req, got.Request)
	assert.JSONEq(t, `{"op":"reduce","reducer":"mean"}`, string(got.Graph))
	assert.WithinDuration(t, task.CreatedAt, got.CreatedAt, time.Millisecond)

	running, err := store.Transition(ctx, task.ID, StateRunning, "", "")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, running.State)

	done, err := store.Transition(ctx, task.ID, StateCompleted, "/drive/Noho.csv", "")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, done.State)
	assert.Equal(t, "/drive/Noho.csv", done.Output)
	assert.False(t, done.UpdatedAt.Before(done.CreatedAt))

	_, err = store.Transition(ctx, task.ID, StateRunning, "", "")
	assert.ErrorIs(t, err, ErrTaskState)
	unchanged, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, unchanged.State)
}

func TestStoreFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	task, err := NewTask(DefaultRequest(), []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, task))

	_, err = store.Transition(ctx, task.ID, StateCompleted, "", "")
	assert.ErrorIs(t, err, ErrTaskState)

	_, err = store.Transition(ctx, task.ID, StateRunning, "", "")
	require.NoError(t, err)
	failed, err := store.Transition(ctx, task.ID, StateFailed, "", "disk full")
	require.NoError(t, err)
	assert.Equal(t, "disk full", failed.Error)

	// a failed task can be launched again
	_, err = store.Transition(ctx, task.ID, StateRunning, "", "")
	assert.NoError(t, err)
}

func TestStoreListAndMissing(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := NewTask(DefaultRequest(), []byte(`{}`))
		require.NoError(t, err)
		task.CreatedAt = task.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Save(ctx, task))
		ids = append(ids, task.ID)
	}

	tasks, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i, task := range tasks {
		assert.Equal(t, ids[i], task.ID)
	}

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.Transition(ctx, "missing", StateRunning, "", "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
