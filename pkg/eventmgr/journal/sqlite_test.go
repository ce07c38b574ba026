package journal_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store1, err := journal.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Record(journal.Incident{ID: "inc-1", Listener: "audit", Kind: journal.KindFailure}))
	require.NoError(t, store1.Close())

	store2, err := journal.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.List(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inc-1", got[0].ID)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := journal.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := journal.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(journal.Incident{Listener: "a"}))
	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	defer store.Close()

	const numGoroutines = 20
	const numOps = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				if j%2 == 0 {
					_ = store.Record(journal.Incident{Listener: fmt.Sprintf("l%d", id), Kind: journal.KindTimeout})
				} else {
					_, _ = store.ListByListener(fmt.Sprintf("l%d", id), 3)
				}
			}
		}(i)
	}
	wg.Wait()

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, numGoroutines*numOps/2, n)
}
