// Package config carries the engine's risk-limit and capacity
// configuration, built directly on flag and os.Getenv.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// EngineConfig carries risk and capacity limits, fixed at
// construction and updatable via Engine.UpdateConfig.
type EngineConfig struct {
	MaxOrderPrice      decimal.Decimal
	MaxOrderQuantity   uint64
	MaxOrdersPerSymbol int
	MaxSymbols         int
	StrictValidation   bool
	EnableLogging      bool
	OrderTimeout       time.Duration
}

// Default returns a reasonable reference configuration for a single
// engine instance.
func Default() EngineConfig {
	return EngineConfig{
		MaxOrderPrice:      decimal.NewFromInt(1_000_000),
		MaxOrderQuantity:   1_000_000,
		MaxOrdersPerSymbol: 10_000,
		MaxSymbols:         1_000,
		StrictValidation:   true,
		EnableLogging:      true,
		OrderTimeout:       5 * time.Second,
	}
}

// RegisterFlags binds cfg's tunables to command-line flags, one flag
// per tunable. Call before flag.Parse.
func (c *EngineConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&decimalFlagValue{&c.MaxOrderPrice}, "max-order-price", "reject LIMIT orders priced above this")
	fs.Uint64Var(&c.MaxOrderQuantity, "max-order-quantity", c.MaxOrderQuantity, "reject orders with quantity above this")
	fs.IntVar(&c.MaxOrdersPerSymbol, "max-orders-per-symbol", c.MaxOrdersPerSymbol, "reject submissions once a symbol's order_count reaches this")
	fs.IntVar(&c.MaxSymbols, "max-symbols", c.MaxSymbols, "maximum number of distinct symbols")
	fs.BoolVar(&c.StrictValidation, "strict-validation", c.StrictValidation, "stored in the config; the engine validates every order regardless")
	fs.BoolVar(&c.EnableLogging, "enable-logging", c.EnableLogging, "enable log output (rejected orders, observer failures)")
	fs.DurationVar(&c.OrderTimeout, "order-timeout", c.OrderTimeout, "advisory client-side order timeout hint")
}

// decimalFlagValue adapts decimal.Decimal to flag.Value.
type decimalFlagValue struct {
	target *decimal.Decimal
}

func (d *decimalFlagValue) String() string {
	if d.target == nil {
		return ""
	}
	return d.target.String()
}

func (d *decimalFlagValue) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*d.target = v
	return nil
}

// EnvOverride applies OCEANBOOK_-prefixed environment variable
// overrides on top of cfg, letting deployment config win over the
// flag defaults without requiring a restart-time flag change.
func (c *EngineConfig) EnvOverride() {
	if v := os.Getenv("OCEANBOOK_MAX_ORDER_QUANTITY"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.MaxOrderQuantity = n
		}
	}
	if v := os.Getenv("OCEANBOOK_MAX_ORDERS_PER_SYMBOL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxOrdersPerSymbol = n
		}
	}
	if v := os.Getenv("OCEANBOOK_MAX_SYMBOLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSymbols = n
		}
	}
	if v := os.Getenv("OCEANBOOK_ENABLE_LOGGING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.EnableLogging = b
		}
	}
}
