package journal_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ journal.Store = (*journal.MemoryStore)(nil)
	_ journal.Store = (*journal.SQLiteStore)(nil)
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) journal.Store

func memoryFactory(t *testing.T) journal.Store {
	return journal.NewMemoryStore(0)
}

func sqliteFactory(t *testing.T) journal.Store {
	store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "incidents.db"))
	require.NoError(t, err)
	return store
}

func TestStoreContract(t *testing.T) {
	storeContractTest(t, "Memory", memoryFactory)
	storeContractTest(t, "SQLite", sqliteFactory)
}

func incidentAt(listener string, kind journal.Kind, at time.Time) journal.Incident {
	return journal.Incident{
		DispatchID: "d-" + listener,
		Listener:   listener,
		EventType:  "string",
		Kind:       kind,
		Error:      "boom",
		Elapsed:    75 * time.Millisecond,
		Limit:      50 * time.Millisecond,
		OccurredAt: at,
	}
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run(name+"/Record_and_List", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		in := incidentAt("slow", journal.KindTimeout, base)
		require.NoError(t, store.Record(in))

		got, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEmpty(t, got[0].ID)
		assert.Equal(t, in.DispatchID, got[0].DispatchID)
		assert.Equal(t, "slow", got[0].Listener)
		assert.Equal(t, journal.KindTimeout, got[0].Kind)
		assert.Equal(t, 75*time.Millisecond, got[0].Elapsed)
		assert.Equal(t, 50*time.Millisecond, got[0].Limit)
		assert.True(t, base.Equal(got[0].OccurredAt))
	})

	t.Run(name+"/Record_FillsOccurredAt", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		before := time.Now().Add(-time.Second)
		require.NoError(t, store.Record(journal.Incident{Listener: "x", Kind: journal.KindFailure}))

		got, err := store.List(1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].OccurredAt.After(before))
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		got, err := store.List(10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run(name+"/List_NewestFirstWithLimit", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for i, l := range []string{"a", "b", "c"} {
			require.NoError(t, store.Record(incidentAt(l, journal.KindFailure, base.Add(time.Duration(i)*time.Minute))))
		}

		got, err := store.List(2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[0].Listener)
		assert.Equal(t, "b", got[1].Listener)
	})

	t.Run(name+"/ListByListener", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Record(incidentAt("a", journal.KindFailure, base)))
		require.NoError(t, store.Record(incidentAt("b", journal.KindTimeout, base.Add(time.Minute))))
		require.NoError(t, store.Record(incidentAt("a", journal.KindTimeout, base.Add(2*time.Minute))))

		got, err := store.ListByListener("a", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, journal.KindTimeout, got[0].Kind)
		assert.Equal(t, journal.KindFailure, got[1].Kind)

		got, err = store.ListByListener("missing", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run(name+"/Count_and_Purge", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for i := 0; i < 4; i++ {
			require.NoError(t, store.Record(incidentAt("a", journal.KindFailure, base.Add(time.Duration(i)*time.Hour))))
		}

		n, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		removed, err := store.Purge(base.Add(2 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		n, err = store.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())
		assert.NoError(t, store.Close())

		assert.ErrorIs(t, store.Record(incidentAt("a", journal.KindFailure, base)), journal.ErrStoreClosed)
		_, err := store.List(0)
		assert.ErrorIs(t, err, journal.ErrStoreClosed)
		_, err = store.Count()
		assert.ErrorIs(t, err, journal.ErrStoreClosed)
		_, err = store.Purge(base)
		assert.ErrorIs(t, err, journal.ErrStoreClosed)
	})
}
