package pos

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddMergesLines(t *testing.T) {
	c := NewCart()
	assert.Equal(t, CartEmpty, c.State())

	id := uuid.New()
	require.NoError(t, c.Add(id, "Pão", decimal.RequireFromString("0.75"), 1))
	require.NoError(t, c.Add(id, "Pão", decimal.RequireFromString("0.75"), 1))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, CartBuilding, c.State())
	assert.True(t, c.Total().Equal(decimal.RequireFromString("1.50")))
}

func TestCartDecrementRemovesLastUnit(t *testing.T) {
	c := NewCart()
	id := uuid.New()
	require.NoError(t, c.Add(id, "Pão", decimal.NewFromInt(1), 0))
	assert.Equal(t, 1, c.Lines()[0].Quantity, "quantities below 1 count as 1")

	require.NoError(t, c.Decrement(id))
	assert.Empty(t, c.Lines())
	assert.Equal(t, CartEmpty, c.State())

	assert.ErrorIs(t, c.Decrement(id), ErrLineNotFound)
}

func TestCartQuantityEdits(t *testing.T) {
	c := NewCart()
	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.Add(a, "A", decimal.NewFromInt(2), 1))
	require.NoError(t, c.Add(b, "B", decimal.NewFromInt(3), 4))

	require.NoError(t, c.Increment(a))
	require.NoError(t, c.Decrement(b))
	require.NoError(t, c.SetQuantity(b, -7))

	lines := c.Lines()
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity, "set quantity clamps at 1")

	require.NoError(t, c.SetQuantity(b, 5))
	view := c.View()
	assert.Equal(t, 7, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(19)))
	assert.True(t, view.Lines[1].LineTotal.Equal(decimal.NewFromInt(15)))

	require.NoError(t, c.Remove(a))
	require.NoError(t, c.Remove(b))
	assert.Equal(t, CartEmpty, c.State())
}

func TestCartPaymentTransitions(t *testing.T) {
	c := NewCart()
	assert.ErrorIs(t, c.ProceedToPayment(), ErrCartEmpty)
	assert.ErrorIs(t, c.CancelPayment(), ErrNotAwaitingPayment)

	id := uuid.New()
	require.NoError(t, c.Add(id, "Leite", decimal.NewFromInt(5), 2))
	require.NoError(t, c.ProceedToPayment())
	assert.Equal(t, CartAwaitingPayment, c.State())

	assert.ErrorIs(t, c.Add(id, "Leite", decimal.NewFromInt(5), 1), ErrCartLocked)
	assert.ErrorIs(t, c.Increment(id), ErrCartLocked)
	assert.ErrorIs(t, c.Remove(id), ErrCartLocked)

	require.NoError(t, c.CancelPayment())
	assert.Equal(t, CartBuilding, c.State())
	assert.Equal(t, 2, c.Lines()[0].Quantity, "cancel has no side effects")

	require.NoError(t, c.ProceedToPayment())
	c.Clear()
	assert.Equal(t, CartEmpty, c.State())
	assert.Empty(t, c.Lines())
}

func TestCartSettle(t *testing.T) {
	c := NewCart()
	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.Add(a, "A", decimal.NewFromInt(1), 1))
	require.NoError(t, c.Add(b, "B", decimal.NewFromInt(1), 1))
	require.NoError(t, c.ProceedToPayment())

	c.settle(map[uuid.UUID]bool{a: true})
	assert.Equal(t, CartBuilding, c.State())
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, b, c.Lines()[0].ProductID)

	c.settle(map[uuid.UUID]bool{b: true})
	assert.Equal(t, CartEmpty, c.State())
}
