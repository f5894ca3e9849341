package news

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardStoreReplayOrder(t *testing.T) {
	store := NewCardStore(5)

	for i := 0; i < 3; i++ {
		store.Append(Card{ID: fmt.Sprintf("card-%d", i)})
	}

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 3)

	// Oldest first for replay
	assert.Equal(t, "card-0", snapshot[0].ID)
	assert.Equal(t, "card-2", snapshot[2].ID)
}

func TestCardStoreBounded(t *testing.T) {
	store := NewCardStore(3)

	for i := 0; i < 6; i++ {
		store.Append(Card{ID: fmt.Sprintf("card-%d", i)})
	}

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, 3, store.Len())

	// Only the newest three survive, still oldest first
	assert.Equal(t, "card-3", snapshot[0].ID)
	assert.Equal(t, "card-5", snapshot[2].ID)
}

func TestCardStoreSnapshotIsCopy(t *testing.T) {
	store := NewCardStore(5)
	store.Append(Card{ID: "original"})

	snapshot := store.Snapshot()
	snapshot[0].ID = "mutated"

	assert.Equal(t, "original", store.Snapshot()[0].ID)
}
