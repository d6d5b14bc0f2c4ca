package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbook/matching-engine/pkg/model"
)

func TestParseSubmitOrderLimit(t *testing.T) {
	cmd, err := parseLine("SUBMIT_ORDER|1,AAPL,0,1,150.00,100")
	require.NoError(t, err)
	assert.Equal(t, cmdSubmitOrder, cmd.typ)
	assert.EqualValues(t, 1, cmd.order.ID)
	assert.Equal(t, "AAPL", cmd.order.Symbol)
	assert.Equal(t, model.Buy, cmd.order.Side)
	assert.Equal(t, model.Limit, cmd.order.Kind)
	assert.True(t, cmd.order.Price.Equal(mustDecimal("150.00")))
	assert.EqualValues(t, 100, cmd.order.Quantity)
}

func TestParseSubmitOrderMarket(t *testing.T) {
	cmd, err := parseLine("SUBMIT_ORDER|5,AAPL,0,0,-,150")
	require.NoError(t, err)
	assert.Equal(t, model.Market, cmd.order.Kind)
	assert.True(t, cmd.order.Price.IsZero())
}

func TestParseCancelOrder(t *testing.T) {
	cmd, err := parseLine("CANCEL_ORDER|7,AAPL")
	require.NoError(t, err)
	assert.Equal(t, cmdCancelOrder, cmd.typ)
	assert.EqualValues(t, 7, cmd.orderID)
	assert.Equal(t, "AAPL", cmd.symbol)
}

func TestParseModifyOrder(t *testing.T) {
	cmd, err := parseLine("MODIFY_ORDER|7,AAPL,101.00,50")
	require.NoError(t, err)
	assert.Equal(t, cmdModifyOrder, cmd.typ)
	assert.True(t, cmd.price.Equal(mustDecimal("101.00")))
	assert.EqualValues(t, 50, cmd.quantity)
}

func TestParseGetQueries(t *testing.T) {
	cmd, err := parseLine("GET_BEST_BID|AAPL")
	require.NoError(t, err)
	assert.Equal(t, cmdGetBestBid, cmd.typ)
	assert.Equal(t, "AAPL", cmd.symbol)

	cmd, err = parseLine("GET_MARKET_DEPTH|AAPL,5")
	require.NoError(t, err)
	assert.Equal(t, cmdGetMarketDepth, cmd.typ)
	assert.Equal(t, 5, cmd.levels)
}

func TestParseLineRejectsMalformed(t *testing.T) {
	_, err := parseLine("SUBMIT_ORDER without pipe")
	assert.Error(t, err)

	_, err = parseLine("BOGUS_TYPE|whatever")
	assert.Error(t, err)

	_, err = parseLine("SUBMIT_ORDER|1,AAPL,9,1,100,10")
	assert.Error(t, err)
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
