// Package book implements the per-symbol matching kernel: price-time
// (FIFO) priority matching over two price-indexed level trees, plus
// the read-only market-data queries the engine coordinator serves.
package book

import (
	"container/list"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oceanbook/matching-engine/pkg/model"
)

// orderLocation records enough to reconstruct a resting order's
// position for O(1) cancellation, and enough of its shape (side, kind)
// to support Engine.Modify without losing the order's kind.
type orderLocation struct {
	price decimal.Decimal
	side  model.Side
	kind  model.Kind
	level *priceLevel
	elem  *list.Element
}

// OrderBook holds the live resting orders on both sides of one symbol
// and performs matching against incoming orders.
type OrderBook struct {
	Symbol      string
	bids        *levelTree // BUY side, best = highest price
	asks        *levelTree // SELL side, best = lowest price
	locations   map[model.OrderID]orderLocation
	nextTradeID model.TradeID
}

// NewOrderBook creates a fresh, empty book for a symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol:    symbol,
		bids:      newLevelTree(),
		asks:      newLevelTree(),
		locations: make(map[model.OrderID]orderLocation),
	}
}

func (b *OrderBook) treeForSide(side model.Side) *levelTree {
	if side == model.Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) oppositeTree(side model.Side) *levelTree {
	return b.treeForSide(side.Opposite())
}

// LevelSnapshot is one aggregated price level: the price and the sum
// of remaining quantity resting at that price.
type LevelSnapshot struct {
	Price    decimal.Decimal
	Quantity uint64
}

// Add attempts to match order against the opposite side and, for a
// LIMIT order with quantity left over, rests the remainder. It returns
// every trade produced, earliest first. order is mutated in place:
// callers observe the final Remaining/fill state through the same
// pointer they passed in.
func (b *OrderBook) Add(order *model.Order) []model.Trade {
	trades := b.matchAgainst(order)
	if order.Kind == model.Limit && order.Remaining > 0 {
		b.rest(order)
	}
	return trades
}

// crosses reports whether an incoming order at the given side and
// price crosses a resting level at restingPrice. A MARKET order always
// crosses; a LIMIT buy crosses any resting ask at or below its price,
// and a LIMIT sell crosses any resting bid at or above its price.
func crosses(incoming *model.Order, restingPrice decimal.Decimal) bool {
	if incoming.Kind == model.Market {
		return true
	}
	if incoming.Side == model.Buy {
		return !incoming.Price.LessThan(restingPrice)
	}
	return !incoming.Price.GreaterThan(restingPrice)
}

// matchAgainst runs the core matching loop: pick the best opposite
// level, walk its FIFO queue head to tail, fill at the passive price,
// and stop when the incoming order is filled, the opposite side is
// exhausted, or the incoming order no longer crosses.
func (b *OrderBook) matchAgainst(incoming *model.Order) []model.Trade {
	var trades []model.Trade
	opposite := b.oppositeTree(incoming.Side)

	for incoming.Remaining > 0 {
		var lvl *priceLevel
		if incoming.Side == model.Buy {
			lvl = opposite.lowest()
		} else {
			lvl = opposite.highest()
		}
		if lvl == nil {
			break
		}
		if !crosses(incoming, lvl.price) {
			break
		}

		elem := lvl.front()
		for elem != nil && incoming.Remaining > 0 {
			resting := elem.Value.(*model.Order)
			qty := minUint64(incoming.Remaining, resting.Remaining)

			incoming.Remaining -= qty
			resting.Remaining -= qty

			trades = append(trades, b.newTrade(incoming, resting, lvl.price, qty))

			next := elem.Next()
			if resting.Remaining == 0 {
				lvl.remove(elem)
				delete(b.locations, resting.ID)
			}
			elem = next
		}

		if lvl.empty() {
			opposite.delete(lvl.price)
		}
	}

	return trades
}

func (b *OrderBook) newTrade(incoming, resting *model.Order, price decimal.Decimal, qty uint64) model.Trade {
	b.nextTradeID++
	buyID, sellID := resting.ID, incoming.ID
	if incoming.Side == model.Buy {
		buyID, sellID = incoming.ID, resting.ID
	}
	return model.Trade{
		TradeID:     b.nextTradeID,
		Symbol:      b.Symbol,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Price:       price,
		Quantity:    qty,
		Timestamp:   time.Now(),
	}
}

// rest inserts the unfilled remainder of a limit order at the tail of
// its price level's FIFO queue and records its location.
func (b *OrderBook) rest(order *model.Order) {
	tree := b.treeForSide(order.Side)
	lvl := tree.getOrCreate(order.Price)
	elem := lvl.pushBack(order)
	b.locations[order.ID] = orderLocation{
		price: order.Price,
		side:  order.Side,
		kind:  order.Kind,
		level: lvl,
		elem:  elem,
	}
}

// Cancel removes a resting order by ID. It returns false if the order
// is not currently resting (unknown, already cancelled, or already
// fully filled). Partial fills already executed are not reversed.
func (b *OrderBook) Cancel(id model.OrderID) bool {
	loc, ok := b.locations[id]
	if !ok {
		return false
	}
	before := loc.level.len()
	loc.level.remove(loc.elem)
	if loc.level.len() != before-1 {
		panic(fmt.Sprintf("book %s: invariant violated: location of order %d points at no queued order", b.Symbol, id))
	}
	delete(b.locations, id)
	if loc.level.empty() {
		b.treeForSide(loc.side).delete(loc.price)
	}
	return true
}

// Locate reports the side and kind of a currently resting order,
// letting Engine.Modify rebuild an equivalent order without losing its
// kind.
func (b *OrderBook) Locate(id model.OrderID) (side model.Side, kind model.Kind, price decimal.Decimal, ok bool) {
	loc, found := b.locations[id]
	if !found {
		return 0, 0, decimal.Zero, false
	}
	return loc.side, loc.kind, loc.price, true
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	lvl := b.bids.highest()
	if lvl == nil {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	lvl := b.asks.lowest()
	if lvl == nil {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// Spread returns BestAsk - BestBid, or false if either side is empty.
// By invariant the book never crosses, so the result is never
// negative.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// BestBidQty sums Remaining across every order resting at the best
// bid price, or 0 if there are no bids.
func (b *OrderBook) BestBidQty() uint64 {
	lvl := b.bids.highest()
	if lvl == nil {
		return 0
	}
	return lvl.totalRemaining()
}

// BestAskQty sums Remaining across every order resting at the best
// ask price, or 0 if there are no asks.
func (b *OrderBook) BestAskQty() uint64 {
	lvl := b.asks.lowest()
	if lvl == nil {
		return 0
	}
	return lvl.totalRemaining()
}

// BidLevels returns up to n bid levels ordered best (highest) first.
func (b *OrderBook) BidLevels(n int) []LevelSnapshot {
	return snapshotLevels(b.bids.levelsDescending(n))
}

// AskLevels returns up to n ask levels ordered best (lowest) first.
func (b *OrderBook) AskLevels(n int) []LevelSnapshot {
	return snapshotLevels(b.asks.levelsAscending(n))
}

func snapshotLevels(levels []*priceLevel) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, LevelSnapshot{Price: lvl.price, Quantity: lvl.totalRemaining()})
	}
	return out
}

// OrderCount returns the total number of orders resting across both
// sides and all levels.
func (b *OrderBook) OrderCount() int {
	return len(b.locations)
}

// LevelCount returns the number of distinct price levels on one side,
// a cheap monitoring affordance for dashboards and debugging.
func (b *OrderBook) LevelCount(side model.Side) int {
	return b.treeForSide(side).size()
}

// Clear removes every resting order from both sides.
func (b *OrderBook) Clear() {
	b.bids = newLevelTree()
	b.asks = newLevelTree()
	b.locations = make(map[model.OrderID]orderLocation)
}

// String renders a top-of-book debug dump.
func (b *OrderBook) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "OrderBook[%s] bids=%d asks=%d orders=%d\n", b.Symbol, b.bids.size(), b.asks.size(), b.OrderCount())
	for _, lvl := range b.BidLevels(5) {
		fmt.Fprintf(&sb, "  BID %s x %d\n", lvl.Price, lvl.Quantity)
	}
	for _, lvl := range b.AskLevels(5) {
		fmt.Fprintf(&sb, "  ASK %s x %d\n", lvl.Price, lvl.Quantity)
	}
	return sb.String()
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
