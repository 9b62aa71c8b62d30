package credstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebrinamusbah/bookstore-client/pkg/credstore"
)

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for store change signal")
	}
}

func TestMemoryStore_SetGetRemove(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "tok-1"))

	v, err := store.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, store.Remove(ctx, credstore.KeyToken))
	_, err = store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, credstore.ErrEmptyKey)
	assert.ErrorIs(t, store.Set(ctx, "", "v"), credstore.ErrEmptyKey)
	assert.ErrorIs(t, store.Remove(ctx, ""), credstore.ErrEmptyKey)
}

func TestMemoryStore_WatchSignalsOnMutation(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "tok-1"))
	waitSignal(t, ch)

	require.NoError(t, store.Remove(ctx, credstore.KeyToken))
	waitSignal(t, ch)
}

func TestMemoryStore_RemoveMissingDoesNotSignal(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, credstore.KeyToken))

	select {
	case <-ch:
		t.Fatal("removing a missing key should not signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	ctx := context.Background()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrClosed)
	assert.ErrorIs(t, store.Set(ctx, credstore.KeyToken, "v"), credstore.ErrClosed)

	_, err = store.Watch(ctx)
	assert.ErrorIs(t, err, credstore.ErrClosed)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestSaveAndClearCredentials(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, credstore.SaveCredentials(ctx, store, "tok-1", `{"id":"u1"}`))
	require.NoError(t, store.Set(ctx, credstore.KeyRememberEmail, "a@b.c"))

	tok, err := store.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, credstore.ClearCredentials(ctx, store))

	_, err = store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
	_, err = store.Get(ctx, credstore.KeyUser)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	// The remembered email survives a credentials clear.
	email, err := store.Get(ctx, credstore.KeyRememberEmail)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", email)
}
