package cart

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

func newManager() *Manager {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewManager(NewMemoryStore(), logger)
}

func cartLine(itemID string, quantity, stockSnapshot int) models.CartLine {
	return models.CartLine{
		ItemID:        itemID,
		Name:          "Item " + itemID,
		Quantity:      quantity,
		UnitPrice:     decimal.NewFromInt(5),
		StockSnapshot: stockSnapshot,
	}
}

func TestManagerAddMergesExistingLine(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Add(ctx, "alice", cartLine("choc1", 2, 10))
	require.NoError(t, err)
	lines, err := m.Add(ctx, "alice", cartLine("choc1", 3, 10))
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestManagerAddClampsToStockSnapshot(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	lines, err := m.Add(ctx, "alice", cartLine("choc1", 9, 4))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)

	// Merging past the snapshot clamps too.
	lines, err = m.Add(ctx, "alice", cartLine("choc1", 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestManagerAddIgnoresNonPositiveQuantity(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	lines, err := m.Add(ctx, "alice", cartLine("choc1", 0, 10))
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = m.Add(ctx, "alice", cartLine("choc1", -2, 10))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestManagerSetQuantity(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Add(ctx, "alice", cartLine("choc1", 2, 10))
	require.NoError(t, err)

	lines, err := m.SetQuantity(ctx, "alice", "choc1", 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 7, lines[0].Quantity)

	// Zero removes the line.
	lines, err = m.SetQuantity(ctx, "alice", "choc1", 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestManagerRemove(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Add(ctx, "alice", cartLine("choc1", 2, 10))
	require.NoError(t, err)
	_, err = m.Add(ctx, "alice", cartLine("fizz1", 1, 10))
	require.NoError(t, err)

	lines, err := m.Remove(ctx, "alice", "choc1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "fizz1", lines[0].ItemID)
}

func TestManagerPersistsAcrossReload(t *testing.T) {
	store := NewMemoryStore()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx := context.Background()

	first := NewManager(store, logger)
	_, err := first.Add(ctx, "alice", cartLine("choc1", 2, 10))
	require.NoError(t, err)

	// A fresh manager over the same store sees the last snapshot.
	second := NewManager(store, logger)
	lines, err := second.Snapshot(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "choc1", lines[0].ItemID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestManagerCartsAreIsolatedByOwner(t *testing.T) {
	m := newManager()
	ctx := context.Background()

	_, err := m.Add(ctx, "alice", cartLine("choc1", 2, 10))
	require.NoError(t, err)
	_, err = m.Add(ctx, "bob", cartLine("fizz1", 1, 10))
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx, "alice"))

	aliceLines, err := m.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceLines)

	bobLines, err := m.Snapshot(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobLines, 1)
}

func TestCartTotal(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		{ItemID: "b", Quantity: 4, UnitPrice: decimal.RequireFromString("2.25")},
	}
	assert.True(t, models.CartTotal(lines).Equal(decimal.RequireFromString("30.00")))
}
