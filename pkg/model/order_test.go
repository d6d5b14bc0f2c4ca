package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderValidate(t *testing.T) {
	cases := []struct {
		name string
		o    Order
		ok   bool
	}{
		{
			"valid limit buy",
			Order{ID: 1, Symbol: "ABC", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 10, Remaining: 10},
			true,
		},
		{
			"valid market sell",
			Order{ID: 2, Symbol: "XYZ", Side: Sell, Kind: Market, Quantity: 5, Remaining: 5},
			true,
		},
		{
			"zero id",
			Order{Symbol: "ABC", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"missing symbol",
			Order{ID: 3, Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"symbol too long",
			Order{ID: 4, Symbol: "TOOLONGSYM", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"non-alphanumeric symbol",
			Order{ID: 5, Symbol: "AB-C", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"invalid side",
			Order{ID: 6, Symbol: "A", Side: Side(9), Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"invalid kind",
			Order{ID: 7, Symbol: "A", Side: Buy, Kind: Kind(9), Price: decimal.NewFromInt(100), Quantity: 1, Remaining: 1},
			false,
		},
		{
			"zero quantity",
			Order{ID: 8, Symbol: "A", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(100), Quantity: 0, Remaining: 0},
			false,
		},
		{
			"limit with zero price",
			Order{ID: 9, Symbol: "A", Side: Sell, Kind: Limit, Price: decimal.Zero, Quantity: 2, Remaining: 2},
			false,
		},
		{
			"market with nonzero price",
			Order{ID: 10, Symbol: "A", Side: Sell, Kind: Market, Price: decimal.NewFromInt(1), Quantity: 2, Remaining: 2},
			false,
		},
		{
			"remaining exceeds quantity",
			Order{ID: 11, Symbol: "A", Side: Buy, Kind: Limit, Price: decimal.NewFromInt(1), Quantity: 2, Remaining: 3},
			false,
		},
	}

	for _, c := range cases {
		err := c.o.Validate()
		if c.ok && err != nil {
			t.Fatalf("case %q: expected valid but got error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("case %q: expected error but got nil", c.name)
		}
	}
}

func TestOrderNewDefaultsRemaining(t *testing.T) {
	o := New(1, "AAPL", Buy, Limit, decimal.NewFromInt(150), 100)
	if o.Remaining != o.Quantity {
		t.Fatalf("expected remaining == quantity on construction, got %d != %d", o.Remaining, o.Quantity)
	}
	if o.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be stamped")
	}
}

func TestOrderFilledAndFullyFilled(t *testing.T) {
	o := New(1, "AAPL", Buy, Limit, decimal.NewFromInt(150), 100)
	o.Remaining = 40
	if got := o.Filled(); got != 60 {
		t.Fatalf("expected filled 60, got %d", got)
	}
	if o.IsFullyFilled() {
		t.Fatalf("expected not fully filled")
	}
	o.Remaining = 0
	if !o.IsFullyFilled() {
		t.Fatalf("expected fully filled")
	}
}

func TestValidSymbolCasePreserved(t *testing.T) {
	if !ValidSymbol("aapl") {
		t.Fatalf("expected lowercase symbol to be accepted verbatim")
	}
	if !ValidSymbol("AAPL") {
		t.Fatalf("expected uppercase symbol to be accepted")
	}
	if ValidSymbol("") {
		t.Fatalf("expected empty symbol to be rejected")
	}
	if ValidSymbol("TOOLONGSYM") {
		t.Fatalf("expected symbol over 8 chars to be rejected")
	}
}
