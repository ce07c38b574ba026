package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
)

func TestManagerConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := journal.NewMemoryStore(0)

	cfg := managerConfig(config.Settings{
		Manager: config.ManagerSettings{Timeout: 3 * time.Second, Workers: 2},
	}, logger, store)

	// Shutdown is driven by client.Close, not by the signal context.
	assert.Equal(t, context.Background(), cfg.Parent)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Same(t, store, cfg.Journal)
	pool, ok := cfg.Pool.(*eventmgr.BoundedPool)
	require.True(t, ok)
	assert.Equal(t, 2, pool.Size())

	cfg = managerConfig(config.Settings{}, logger, store)
	assert.IsType(t, eventmgr.GoPool{}, cfg.Pool)
}
