package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbook/matching-engine/pkg/model"
)

func TestShardRoutingIsStableForASymbol(t *testing.T) {
	r := NewShardedRouter(4, 16)
	defer r.Stop()

	idx1 := r.shardFor("AAPL")
	idx2 := r.shardFor("AAPL")
	assert.Equal(t, idx1, idx2)
}

func TestShardedRouterSubmitAndCancel(t *testing.T) {
	r := NewShardedRouter(4, 16)
	defer r.Stop()

	res := r.Submit(limitOrder(1, "AAPL", model.Buy, "100", 10))
	require.NoError(t, res.Err)
	assert.Empty(t, res.Trades)

	cancel := r.Cancel("AAPL", 1)
	assert.True(t, cancel.OK)

	cancel2 := r.Cancel("AAPL", 1)
	assert.False(t, cancel2.OK)
}

func TestShardedRouterMatchesAcrossSubmissions(t *testing.T) {
	r := NewShardedRouter(4, 16)
	defer r.Stop()

	res1 := r.Submit(limitOrder(1, "AAPL", model.Sell, "100", 10))
	require.NoError(t, res1.Err)

	res2 := r.Submit(limitOrder(2, "AAPL", model.Buy, "100", 10))
	require.NoError(t, res2.Err)
	require.Len(t, res2.Trades, 1)
	assert.EqualValues(t, 1, res2.Trades[0].SellOrderID)
	assert.EqualValues(t, 2, res2.Trades[0].BuyOrderID)
}

func TestShardedRouterDepth(t *testing.T) {
	r := NewShardedRouter(4, 16)
	defer r.Stop()

	r.Submit(limitOrder(1, "AAPL", model.Buy, "150.00", 100))
	r.Submit(limitOrder(2, "AAPL", model.Sell, "150.10", 50))

	depth := r.Depth("AAPL", 5)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Bids[0].Price.Equal(px("150.00")))
}

func TestShardedRouterRejectsInvalidOrder(t *testing.T) {
	r := NewShardedRouter(4, 16)
	defer r.Stop()

	res := r.Submit(limitOrder(0, "AAPL", model.Buy, "100", 10))
	assert.Error(t, res.Err)
}
