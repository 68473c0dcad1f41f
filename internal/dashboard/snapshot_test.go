package dashboard

import (
	"context"
	"testing"
	"time"

	"pitchdesk/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStorePersistsInSessionNamespace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv, err := store.Store{Dir: t.TempDir()}.OpenKV(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	ss := NewSnapshotStore(kv)
	_, ok, err := ss.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	c := loaded(t, 3, recs("1", "2", "3")...)
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, ss.Save(ctx, c.Snapshot("ctx", now)))

	got, ok, err := ss.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got.Items))
	assert.True(t, got.SavedAt.Equal(now))

	// Clearing the session namespace (logout, 401) drops the snapshot.
	require.NoError(t, kv.ClearNamespace(ctx, store.NamespaceSession))
	_, ok, err = ss.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
