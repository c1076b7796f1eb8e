package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_QueryMostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", "first", TypeUser)))
	require.NoError(t, store.Append(ctx, NewRecord("+999", "+111", "second", TypeAssistant)))
	require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", "third", TypeUser)))

	records, err := store.Query(ctx, "+111", "+999", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Content)
	assert.Equal(t, "second", records[1].Content)
	assert.Equal(t, "first", records[2].Content)
}

func TestSQLiteStore_QueryMatchesBothDirections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", "inbound", TypeUser)))
	require.NoError(t, store.Append(ctx, NewRecord("+999", "+111", "outbound", TypeAssistant)))
	require.NoError(t, store.Append(ctx, NewRecord("+222", "+999", "other thread", TypeUser)))

	records, err := store.Query(ctx, "+111", "+999", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestSQLiteStore_EmptyCounterpartyMatchesAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", "to bot a", TypeUser)))
	require.NoError(t, store.Append(ctx, NewRecord("+888", "+111", "from bot b", TypeAssistant)))
	require.NoError(t, store.Append(ctx, NewRecord("+222", "+999", "other user", TypeUser)))

	records, err := store.Query(ctx, "+111", "", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestLoader_RecentReturnsOldestFirstWithinLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		rtype := TypeUser
		if i%2 == 0 {
			rtype = TypeAssistant
		}
		require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", fmt.Sprintf("msg %d", i), rtype)))
	}

	loader := NewLoader(store)
	messages, err := loader.Recent(ctx, "+111", "+999", 20)
	require.NoError(t, err)
	require.Len(t, messages, 20)

	// The 5 oldest records fall outside the window; the rest are chronological.
	assert.Equal(t, "msg 6", messages[0].Text())
	assert.Equal(t, "msg 25", messages[19].Text())
}

func TestLoader_MapsRecordTypesToRoles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, NewRecord("+111", "+999", "hi", TypeUser)))
	require.NoError(t, store.Append(ctx, NewRecord("+999", "+111", "hello!", TypeAssistant)))

	loader := NewLoader(store)
	messages, err := loader.Recent(ctx, "+111", "+999", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)
}
