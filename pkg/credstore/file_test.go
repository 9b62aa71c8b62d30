package credstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebrinamusbah/bookstore-client/pkg/credstore"
)

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	store, err := credstore.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "tok-1"))
	require.NoError(t, store.Set(ctx, credstore.KeyUser, `{"id":"u1"}`))
	require.NoError(t, store.Close())

	reopened, err := credstore.NewFileStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	tok, err := reopened.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	user, err := reopened.Get(ctx, credstore.KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, user)
}

func TestFileStore_RemoveAndNotFound(t *testing.T) {
	t.Parallel()

	store, err := credstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "tok-1"))
	require.NoError(t, store.Remove(ctx, credstore.KeyToken))

	_, err = store.Get(ctx, credstore.KeyToken)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove(ctx, credstore.KeyToken))
}

func TestFileStore_WatchOwnWrites(t *testing.T) {
	t.Parallel()

	store, err := credstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, credstore.KeyToken, "tok-1"))
	waitSignal(t, ch)
}

func TestFileStore_WatchExternalWriter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	watcher, err := credstore.NewFileStore(dir, credstore.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Close()

	writer, err := credstore.NewFileStore(dir)
	require.NoError(t, err)
	defer writer.Close()

	ch, err := watcher.Watch(ctx)
	require.NoError(t, err)

	// Filesystem mtime granularity can swallow sub-tick writes.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, writer.Set(ctx, credstore.KeyToken, "tok-from-other-process"))

	waitSignal(t, ch)

	tok, err := watcher.Get(ctx, credstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-from-other-process", tok)
}
