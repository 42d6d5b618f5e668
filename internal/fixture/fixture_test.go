package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozen() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }

func TestLatestDeterministic(t *testing.T) {
	a := New(7)
	a.now = frozen
	b := New(7)
	b.now = frozen

	ra, err := a.Latest(context.Background(), 50)
	require.NoError(t, err)
	rb, err := b.Latest(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, ra, 50)
	assert.Equal(t, ra, rb)
}

func TestTradesAreLabeledAndInRange(t *testing.T) {
	g := New(1)
	g.now = frozen
	txs, err := g.Latest(context.Background(), 200)
	require.NoError(t, err)
	for _, tx := range txs {
		assert.Equal(t, Name, tx.Source)
		assert.GreaterOrEqual(t, tx.TransactionValue, 100_000.0)
		assert.LessOrEqual(t, tx.TransactionValue, 50_000_000.0)
		assert.GreaterOrEqual(t, tx.SharesTraded, 10_000.0)
		assert.LessOrEqual(t, tx.SharesTraded, 1_000_000.0)
		assert.GreaterOrEqual(t, tx.SharesRatio, 0.0)
		assert.LessOrEqual(t, tx.SharesRatio, 2.0)
		assert.NotEmpty(t, tx.CompanyName)
	}
}

func TestSymbolWithinWindow(t *testing.T) {
	g := New(3)
	g.now = frozen
	since := frozen().AddDate(0, 0, -10)
	for range 20 {
		txs, err := g.Symbol(context.Background(), "nvda", since)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(txs), 5)
		for _, tx := range txs {
			assert.Equal(t, "NVDA", tx.Symbol)
			assert.Equal(t, "NVIDIA Corporation", tx.CompanyName)
			assert.False(t, tx.TransactionDate.Before(since))
		}
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(1).Latest(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
