package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oceanbook/matching-engine/pkg/model"
)

func px(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func limit(id model.OrderID, symbol string, side model.Side, price string, qty uint64) *model.Order {
	o := model.New(id, symbol, side, model.Limit, px(price), qty)
	return &o
}

func market(id model.OrderID, symbol string, side model.Side, qty uint64) *model.Order {
	o := model.New(id, symbol, side, model.Market, decimal.Zero, qty)
	return &o
}

// S1 - no crossing builds the book.
func TestScenarioS1NoCrossingBuildsBook(t *testing.T) {
	ob := NewOrderBook("AAPL")

	assert.Empty(t, ob.Add(limit(1, "AAPL", model.Buy, "150.00", 100)))
	assert.Empty(t, ob.Add(limit(2, "AAPL", model.Buy, "149.95", 200)))
	assert.Empty(t, ob.Add(limit(3, "AAPL", model.Sell, "150.10", 100)))
	assert.Empty(t, ob.Add(limit(4, "AAPL", model.Sell, "150.15", 200)))

	bid, ok := ob.BestBid()
	assert.True(t, ok)
	assert.True(t, bid.Equal(px("150.00")))

	ask, ok := ob.BestAsk()
	assert.True(t, ok)
	assert.True(t, ask.Equal(px("150.10")))

	spread, ok := ob.Spread()
	assert.True(t, ok)
	assert.True(t, spread.Equal(px("0.10")))

	assert.Equal(t, 4, ob.OrderCount())
}

// S2 - market buy sweeps two ask levels.
func TestScenarioS2MarketBuySweepsTwoAskLevels(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Add(limit(1, "AAPL", model.Buy, "150.00", 100))
	ob.Add(limit(2, "AAPL", model.Buy, "149.95", 200))
	ob.Add(limit(3, "AAPL", model.Sell, "150.10", 100))
	ob.Add(limit(4, "AAPL", model.Sell, "150.15", 200))

	trades := ob.Add(market(5, "AAPL", model.Buy, 150))
	assert.Len(t, trades, 2)

	assert.EqualValues(t, 5, trades[0].BuyOrderID)
	assert.EqualValues(t, 3, trades[0].SellOrderID)
	assert.True(t, trades[0].Price.Equal(px("150.10")))
	assert.EqualValues(t, 100, trades[0].Quantity)

	assert.EqualValues(t, 5, trades[1].BuyOrderID)
	assert.EqualValues(t, 4, trades[1].SellOrderID)
	assert.True(t, trades[1].Price.Equal(px("150.15")))
	assert.EqualValues(t, 50, trades[1].Quantity)

	ask, ok := ob.BestAsk()
	assert.True(t, ok)
	assert.True(t, ask.Equal(px("150.15")))
	assert.EqualValues(t, 150, ob.BestAskQty())
}

// S3 - aggressive limit executes at the passive (resting) price.
func TestScenarioS3AggressiveLimitExecutesAtPassivePrice(t *testing.T) {
	ob := NewOrderBook("X")
	ob.Add(limit(10, "X", model.Sell, "100.00", 50))

	trades := ob.Add(limit(11, "X", model.Buy, "101.00", 50))
	assert.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(px("100.00")))
	assert.EqualValues(t, 50, trades[0].Quantity)
	assert.Equal(t, 0, ob.OrderCount())
}

// S4 - FIFO within a level.
func TestScenarioS4FIFOWithinLevel(t *testing.T) {
	ob := NewOrderBook("Y")
	o20 := limit(20, "Y", model.Buy, "50", 10)
	o21 := limit(21, "Y", model.Buy, "50", 10)
	ob.Add(o20)
	ob.Add(o21)

	trades := ob.Add(limit(22, "Y", model.Sell, "50", 10))
	assert.Len(t, trades, 1)
	assert.EqualValues(t, 20, trades[0].BuyOrderID)
	assert.EqualValues(t, 22, trades[0].SellOrderID)

	assert.EqualValues(t, 10, o21.Remaining)
	assert.Equal(t, 1, ob.OrderCount())
}

// S5 - cancel removes priority.
func TestScenarioS5CancelRemovesPriority(t *testing.T) {
	ob := NewOrderBook("Z")
	ob.Add(limit(30, "Z", model.Buy, "10", 5))
	ob.Add(limit(31, "Z", model.Buy, "10", 5))

	assert.True(t, ob.Cancel(30))

	trades := ob.Add(limit(32, "Z", model.Sell, "10", 5))
	assert.Len(t, trades, 1)
	assert.EqualValues(t, 31, trades[0].BuyOrderID)
	assert.EqualValues(t, 32, trades[0].SellOrderID)
}

func TestCancelUnknownReturnsFalse(t *testing.T) {
	ob := NewOrderBook("Z")
	assert.False(t, ob.Cancel(999))
}

func TestMarketOrderAgainstEmptyBookDiscarded(t *testing.T) {
	ob := NewOrderBook("LMN")
	trades := ob.Add(market(1, "LMN", model.Buy, 5))
	assert.Empty(t, trades)
	assert.Equal(t, 0, ob.OrderCount())
}

func TestLimitOrderNoCrossRestsInFull(t *testing.T) {
	ob := NewOrderBook("ABC")
	ob.Add(limit(1, "ABC", model.Sell, "100", 10))
	trades := ob.Add(limit(2, "ABC", model.Buy, "99", 5))
	assert.Empty(t, trades)
	assert.Equal(t, 2, ob.OrderCount())
}

func TestPartialFillLeavesResidual(t *testing.T) {
	ob := NewOrderBook("XYZ")
	s1 := limit(1, "XYZ", model.Sell, "100", 10)
	ob.Add(s1)

	b1 := limit(2, "XYZ", model.Buy, "100", 6)
	trades := ob.Add(b1)

	assert.Len(t, trades, 1)
	assert.EqualValues(t, 6, s1.Filled())
	assert.EqualValues(t, 6, b1.Filled())
	assert.EqualValues(t, 4, s1.Remaining)
	assert.EqualValues(t, 0, b1.Remaining)
}

func TestBookNeverCrosses(t *testing.T) {
	ob := NewOrderBook("ABC")
	ob.Add(limit(1, "ABC", model.Buy, "100", 10))
	ob.Add(limit(2, "ABC", model.Sell, "101", 10))

	bid, _ := ob.BestBid()
	ask, _ := ob.BestAsk()
	assert.True(t, bid.LessThan(ask))
}

func TestQuantityConservation(t *testing.T) {
	ob := NewOrderBook("ABC")
	sell := limit(1, "ABC", model.Sell, "100", 10)
	ob.Add(sell)

	buy := limit(2, "ABC", model.Buy, "100", 15)
	trades := ob.Add(buy)

	var buyTraded uint64
	for _, tr := range trades {
		if tr.BuyOrderID == buy.ID {
			buyTraded += tr.Quantity
		}
	}
	assert.Equal(t, buy.Quantity, buyTraded+buy.Remaining)
}

func TestTradeIDsStrictlyIncreasing(t *testing.T) {
	ob := NewOrderBook("ABC")
	ob.Add(limit(1, "ABC", model.Sell, "100", 1))
	ob.Add(limit(2, "ABC", model.Sell, "100", 1))
	ob.Add(limit(3, "ABC", model.Sell, "100", 1))

	trades := ob.Add(limit(4, "ABC", model.Buy, "100", 3))
	assert.Len(t, trades, 3)
	for i := 1; i < len(trades); i++ {
		assert.Greater(t, uint64(trades[i].TradeID), uint64(trades[i-1].TradeID))
	}
}

func TestLevelCountAndClear(t *testing.T) {
	ob := NewOrderBook("ABC")
	ob.Add(limit(1, "ABC", model.Buy, "100", 1))
	ob.Add(limit(2, "ABC", model.Buy, "101", 1))
	ob.Add(limit(3, "ABC", model.Sell, "102", 1))

	assert.Equal(t, 2, ob.LevelCount(model.Buy))
	assert.Equal(t, 1, ob.LevelCount(model.Sell))

	ob.Clear()
	assert.Equal(t, 0, ob.OrderCount())
	assert.Equal(t, 0, ob.LevelCount(model.Buy))
	assert.Equal(t, 0, ob.LevelCount(model.Sell))
}

func TestLocatePreservesSideAndKind(t *testing.T) {
	ob := NewOrderBook("ABC")
	ob.Add(limit(1, "ABC", model.Sell, "100", 5))

	side, kind, price, ok := ob.Locate(1)
	assert.True(t, ok)
	assert.Equal(t, model.Sell, side)
	assert.Equal(t, model.Limit, kind)
	assert.True(t, price.Equal(px("100")))

	_, _, _, ok = ob.Locate(999)
	assert.False(t, ok)
}
