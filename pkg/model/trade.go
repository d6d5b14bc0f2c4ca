package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeID uniquely identifies a trade within one order book. The zero
// value is reserved and never assigned.
type TradeID uint64

// InvalidTradeID is the reserved sentinel identifying "no trade".
const InvalidTradeID TradeID = 0

// Trade is an immutable record of a single fill. Price always equals
// the passive (resting) order's price; the aggressor never sets the
// execution price.
type Trade struct {
	TradeID     TradeID
	Symbol      string
	BuyOrderID  OrderID
	SellOrderID OrderID
	Price       decimal.Decimal
	Quantity    uint64
	Timestamp   time.Time
}
