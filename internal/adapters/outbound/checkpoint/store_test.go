package checkpoint_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelfix/sentinel/internal/adapters/outbound/checkpoint"
	"github.com/sentinelfix/sentinel/internal/domain"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := checkpoint.New()

	cp := &domain.Checkpoint{
		CheckpointID:    "cp-001",
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		CompletedFixIDs: []string{"fix-a", "fix-b"},
		RemainingCount:  3,
		Resumable:       true,
	}
	require.NoError(t, store.Save(dir, cp))

	got, err := store.Load(dir, "cp-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp, got)
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	got, err := checkpoint.New().Load(t.TempDir(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_LatestPicksNewestTimestamp(t *testing.T) {
	dir := t.TempDir()
	store := checkpoint.New()

	older := &domain.Checkpoint{
		CheckpointID: "cp-old",
		Timestamp:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	newer := &domain.Checkpoint{
		CheckpointID: "cp-new",
		Timestamp:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Resumable:    true,
	}
	require.NoError(t, store.Save(dir, newer))
	require.NoError(t, store.Save(dir, older))

	got, err := store.Latest(dir)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cp-new", got.CheckpointID)
}

func TestStore_LatestWithoutCheckpoints(t *testing.T) {
	got, err := checkpoint.New().Latest(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, got)
}
