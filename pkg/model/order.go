// Package model defines the value types shared by the order book and
// the engine coordinator: orders, trades, and the validation predicates
// that gate what may enter the book.
package model

import (
	"fmt"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Side identifies which side of the book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind distinguishes resting limit orders from immediate-or-discard
// market orders.
type Kind uint8

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	switch k {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// OrderID uniquely identifies an order. The zero value is reserved and
// never assigned to a real order.
type OrderID uint64

// InvalidOrderID is the reserved sentinel identifying "no order".
const InvalidOrderID OrderID = 0

// Price/quantity bounds enforced by Order.Validate. Mirrors the limits
// carried by the original C++ header's types.hpp constants.
var (
	MinPrice = decimal.NewFromFloat(0.01)
	MaxPrice = decimal.NewFromInt(1_000_000_000)
)

const (
	MinQuantity uint64 = 1
	MaxQuantity uint64 = 1_000_000_000
)

// MinSymbolLen and MaxSymbolLen bound the accepted symbol length.
const (
	MinSymbolLen = 1
	MaxSymbolLen = 8
)

// Order is an immutable-identity, mutable-residual order. Remaining is
// decremented in place as fills occur; every other field is fixed at
// construction.
type Order struct {
	ID        OrderID
	Symbol    string
	Side      Side
	Kind      Kind
	Price     decimal.Decimal // zero for MARKET orders
	Quantity  uint64
	Remaining uint64
	Timestamp time.Time
}

// New constructs an order with Remaining initialized to Quantity and
// Timestamp stamped at call time. It does not validate the order; call
// Validate before handing it to a book.
func New(id OrderID, symbol string, side Side, kind Kind, price decimal.Decimal, quantity uint64) Order {
	return Order{
		ID:        id,
		Symbol:    symbol,
		Side:      side,
		Kind:      kind,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		Timestamp: time.Now(),
	}
}

// Filled reports how much of the order has already executed.
func (o *Order) Filled() uint64 {
	return o.Quantity - o.Remaining
}

// IsFullyFilled reports whether the order has no remaining quantity.
func (o *Order) IsFullyFilled() bool {
	return o.Remaining == 0
}

// ValidSymbol reports whether s meets the 1-8 alphanumeric constraint.
// Case is never normalized: the spec leaves case sensitivity
// unspecified, and this implementation preserves the bytes verbatim
// (see DESIGN.md).
func ValidSymbol(s string) bool {
	if len(s) < MinSymbolLen || len(s) > MaxSymbolLen {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Validate checks the syntactic invariants from the data model: order
// ID, symbol shape, side/kind enums, and price/quantity bounds
// appropriate to the order kind. It does not check risk limits or book
// state; that is the engine coordinator's job.
func (o *Order) Validate() error {
	if o.ID == InvalidOrderID {
		return fmt.Errorf("order id must not be zero")
	}
	if !ValidSymbol(o.Symbol) {
		return fmt.Errorf("symbol %q must be 1-%d alphanumeric characters", o.Symbol, MaxSymbolLen)
	}
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("invalid side %v", o.Side)
	}
	if o.Kind != Limit && o.Kind != Market {
		return fmt.Errorf("invalid kind %v", o.Kind)
	}
	if o.Quantity < MinQuantity || o.Quantity > MaxQuantity {
		return fmt.Errorf("quantity %d out of range [%d, %d]", o.Quantity, MinQuantity, MaxQuantity)
	}
	if o.Remaining > o.Quantity {
		return fmt.Errorf("remaining %d exceeds quantity %d", o.Remaining, o.Quantity)
	}
	switch o.Kind {
	case Market:
		if !o.Price.IsZero() {
			return fmt.Errorf("market orders must have price 0, got %s", o.Price)
		}
	case Limit:
		if o.Price.LessThan(MinPrice) || o.Price.GreaterThan(MaxPrice) {
			return fmt.Errorf("price %s out of range [%s, %s]", o.Price, MinPrice, MaxPrice)
		}
	}
	return nil
}
