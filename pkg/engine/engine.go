// Package engine implements the multi-symbol coordinator: the exclusive
// entry point through which orders are submitted, cancelled, and
// modified, and through which market data and statistics are read.
// Engine itself guards a map of per-symbol order books behind a single
// sync.RWMutex; sharded.go offers a lock-free alternative that
// partitions symbols across goroutine actors instead.
package engine

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oceanbook/matching-engine/pkg/book"
	"github.com/oceanbook/matching-engine/pkg/config"
	"github.com/oceanbook/matching-engine/pkg/metrics"
	"github.com/oceanbook/matching-engine/pkg/model"
)

// Engine coordinates every order book. All mutating and reading
// operations take mu, so no book is ever observed mid-mutation and no
// two submissions to the same or different symbols interleave.
type Engine struct {
	mu sync.RWMutex

	books  map[string]*book.OrderBook
	config config.EngineConfig

	running   bool
	startTime time.Time

	ordersProcessed uint64
	tradesExecuted  uint64

	tradeObservers []TradeObserver
	orderObservers []OrderObserver

	log     *logrus.Logger
	metrics *metrics.Collectors
}

// New constructs a stopped Engine. Pass nil for log or mc to get
// quiet defaults (logging.New(false) and metrics.New()).
func New(cfg config.EngineConfig, log *logrus.Logger, mc *metrics.Collectors) *Engine {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	if mc == nil {
		mc = metrics.New()
	}
	return &Engine{
		books:   make(map[string]*book.OrderBook),
		config:  cfg,
		log:     log,
		metrics: mc,
	}
}

// Start marks the engine running and resets the statistics clock. It
// does not touch existing books or their resting orders.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.startTime = time.Now()
}

// Stop marks the engine stopped. Submit refuses new orders while
// stopped; queries and cancellation remain available.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// IsRunning reports whether the engine currently accepts submissions.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// AddSymbol registers a new, empty order book for symbol. It returns
// model.ErrSymbolExists if the symbol is already registered, and a
// *model.InvalidOrderError if the symbol shape is rejected. Either
// way, the symbol set afterward is the same as if AddSymbol had been
// called once: the operation is idempotent on engine state even when
// it reports failure on repetition.
func (e *Engine) AddSymbol(symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !model.ValidSymbol(symbol) {
		return &model.InvalidOrderError{Reason: "symbol \"" + symbol + "\" is not 1-8 alphanumeric characters"}
	}
	if _, ok := e.books[symbol]; ok {
		return model.ErrSymbolExists
	}
	if len(e.books) >= e.config.MaxSymbols {
		return &model.RiskLimitExceededError{Which: "max_symbols"}
	}
	e.books[symbol] = book.NewOrderBook(symbol)
	e.metrics.ActiveSymbols.Set(float64(len(e.books)))
	return nil
}

// RemoveSymbol deregisters a symbol's order book. It fails with
// *model.UnknownSymbolError if the symbol is not registered, and with
// model.ErrSymbolNotEmpty if the book still has resting orders.
func (e *Engine) RemoveSymbol(symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ob, ok := e.books[symbol]
	if !ok {
		return &model.UnknownSymbolError{Symbol: symbol}
	}
	if ob.OrderCount() != 0 {
		return model.ErrSymbolNotEmpty
	}
	delete(e.books, symbol)
	e.metrics.ActiveSymbols.Set(float64(len(e.books)))
	return nil
}

// MetricsRegistry exposes the engine's Prometheus registry so an HTTP
// surface can serve it under /metrics without reaching into engine
// internals.
func (e *Engine) MetricsRegistry() *prometheus.Registry {
	return e.metrics.Registry
}

// ActiveSymbols returns the currently registered symbols, in no
// particular order.
func (e *Engine) ActiveSymbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.books))
	for sym := range e.books {
		out = append(out, sym)
	}
	return out
}

// Submit runs the full validate -> risk-check -> match -> broadcast
// pipeline for one order and returns the trades it produced. order is
// copied; the caller's copy is not mutated, unlike OrderBook.Add.
//
// Failure modes, checked in order: model.ErrEngineStopped if the
// engine isn't running, *model.InvalidOrderError if the order fails
// structural validation, *model.RiskLimitExceededError if a configured
// limit is violated, and *model.UnknownSymbolError if no book is
// registered for the order's symbol. A rejected order produces no
// trades and leaves every book untouched.
func (e *Engine) Submit(order model.Order) ([]model.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(order)
}

// submitLocked is the validate -> risk-check -> match -> broadcast
// pipeline shared by Submit and Modify. Callers must hold mu.
func (e *Engine) submitLocked(order model.Order) ([]model.Trade, error) {
	if !e.running {
		e.reject("engine_stopped")
		return nil, model.ErrEngineStopped
	}
	if err := order.Validate(); err != nil {
		e.reject("invalid_order")
		return nil, &model.InvalidOrderError{Reason: err.Error()}
	}

	if order.Kind == model.Limit && order.Price.GreaterThan(e.config.MaxOrderPrice) {
		e.reject("max_order_price")
		return nil, &model.RiskLimitExceededError{Which: "max_order_price"}
	}
	if order.Quantity > e.config.MaxOrderQuantity {
		e.reject("max_order_quantity")
		return nil, &model.RiskLimitExceededError{Which: "max_order_quantity"}
	}
	if ob, ok := e.books[order.Symbol]; ok && ob.OrderCount() >= e.config.MaxOrdersPerSymbol {
		e.reject("max_orders_per_symbol")
		return nil, &model.RiskLimitExceededError{Which: "max_orders_per_symbol"}
	}

	ob, ok := e.books[order.Symbol]
	if !ok {
		e.reject("unknown_symbol")
		return nil, &model.UnknownSymbolError{Symbol: order.Symbol}
	}

	trades := ob.Add(&order)
	e.recordFill(order, trades)
	return trades, nil
}

// recordFill updates counters, metrics, and observers after a
// successful Add. Called with mu held.
func (e *Engine) recordFill(order model.Order, trades []model.Trade) {
	e.ordersProcessed++
	e.tradesExecuted += uint64(len(trades))
	e.metrics.OrdersProcessed.Inc()
	if len(trades) > 0 {
		e.metrics.TradesExecuted.Add(float64(len(trades)))
	}

	for _, t := range trades {
		e.broadcastTrade(t)
	}
	e.broadcastOrder(order)
}

func (e *Engine) reject(reason string) {
	e.metrics.OrdersRejected.With(prometheus.Labels{"reason": reason}).Inc()
	if e.config.EnableLogging {
		e.log.WithField("reason", reason).Warn("order rejected")
	}
}

// Cancel removes a resting order from symbol's book. It returns false
// if the symbol is unknown or the order is not currently resting.
func (e *Engine) Cancel(id model.OrderID, symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ob, ok := e.books[symbol]
	if !ok {
		return false
	}
	return ob.Cancel(id)
}

// Modify replaces a resting order's price and quantity, preserving its
// side and kind, by cancelling it and running the replacement through
// the same validate -> risk-check -> match -> broadcast pipeline
// Submit uses. It reports (false, nil) if the order is not currently
// resting. Once the original is cancelled, the replacement must clear
// every check Submit would apply to a fresh order (including the
// configured risk limits and the engine's running state); if it is
// rejected, the original is not restored, matching cancel-then-resubmit
// semantics. A successful replacement can itself trade, and loses its
// place in FIFO priority exactly as a fresh submission would.
func (e *Engine) Modify(id model.OrderID, symbol string, newPrice decimal.Decimal, newQuantity uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ob, ok := e.books[symbol]
	if !ok {
		return false, &model.UnknownSymbolError{Symbol: symbol}
	}

	side, kind, _, found := ob.Locate(id)
	if !found {
		return false, nil
	}

	if !ob.Cancel(id) {
		return false, nil
	}

	replacement := model.New(id, symbol, side, kind, newPrice, newQuantity)
	if _, err := e.submitLocked(replacement); err != nil {
		return false, err
	}
	return true, nil
}

// BestBid returns symbol's best resting bid price.
func (e *Engine) BestBid(symbol string) (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ob, ok := e.books[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return ob.BestBid()
}

// BestAsk returns symbol's best resting ask price.
func (e *Engine) BestAsk(symbol string) (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ob, ok := e.books[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return ob.BestAsk()
}

// Spread returns symbol's best-ask-minus-best-bid.
func (e *Engine) Spread(symbol string) (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ob, ok := e.books[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return ob.Spread()
}

// MarketDepth is a point-in-time snapshot of a symbol's book, used by
// the depth query and the streaming gateway alike.
type MarketDepth struct {
	Symbol      string
	Bids        []book.LevelSnapshot
	Asks        []book.LevelSnapshot
	BestBid     decimal.Decimal
	HasBestBid  bool
	BestAsk     decimal.Decimal
	HasBestAsk  bool
	Spread      decimal.Decimal
	HasSpread   bool
	TotalOrders int
	Timestamp   time.Time
}

// MarketDepth reports up to levels price levels on each side of
// symbol's book, plus its top-of-book summary.
func (e *Engine) MarketDepth(symbol string, levels int) (MarketDepth, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ob, ok := e.books[symbol]
	if !ok {
		return MarketDepth{}, false
	}

	d := MarketDepth{
		Symbol:      symbol,
		Bids:        ob.BidLevels(levels),
		Asks:        ob.AskLevels(levels),
		TotalOrders: ob.OrderCount(),
		Timestamp:   time.Now(),
	}
	d.BestBid, d.HasBestBid = ob.BestBid()
	d.BestAsk, d.HasBestAsk = ob.BestAsk()
	d.Spread, d.HasSpread = ob.Spread()
	return d, true
}

// RegisterTradeObserver adds a callback invoked synchronously, in
// registration order, for every trade a submission produces.
func (e *Engine) RegisterTradeObserver(obs TradeObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tradeObservers = append(e.tradeObservers, obs)
}

// RegisterOrderObserver adds a callback invoked once per submission
// with the order's final state.
func (e *Engine) RegisterOrderObserver(obs OrderObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderObservers = append(e.orderObservers, obs)
}

// UnregisterAll drops every registered observer.
func (e *Engine) UnregisterAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tradeObservers = nil
	e.orderObservers = nil
}

// broadcastTrade and broadcastOrder are called with mu held, matching
// the rest of the coordinator's single-lock model; observers must not
// call back into the Engine or they will deadlock.
func (e *Engine) broadcastTrade(t model.Trade) {
	for _, obs := range e.tradeObservers {
		if err := safeCallTrade(obs, t); err != nil {
			e.log.WithError(err).Warn("trade observer failed, aborting broadcast for this trade")
			return
		}
	}
}

func (e *Engine) broadcastOrder(o model.Order) {
	for _, obs := range e.orderObservers {
		if err := safeCallOrder(obs, o); err != nil {
			e.log.WithError(err).Warn("order observer failed, aborting broadcast for this order")
			return
		}
	}
}

// Statistics is a point-in-time summary of engine activity.
type Statistics struct {
	OrdersProcessed uint64
	TradesExecuted  uint64
	ActiveSymbols   int
	Uptime          time.Duration
	OrdersPerSecond float64
	TradesPerSecond float64
}

// Statistics reports cumulative counters and derived throughput rates.
// Rates are zero, not NaN or +Inf, until the engine has been running
// for a nonzero duration.
func (e *Engine) Statistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	uptime := time.Since(e.startTime)
	stats := Statistics{
		OrdersProcessed: e.ordersProcessed,
		TradesExecuted:  e.tradesExecuted,
		ActiveSymbols:   len(e.books),
		Uptime:          uptime,
	}
	if secs := uptime.Seconds(); secs > 0 {
		stats.OrdersPerSecond = float64(e.ordersProcessed) / secs
		stats.TradesPerSecond = float64(e.tradesExecuted) / secs
	}
	return stats
}

// ResetStatistics zeroes the cumulative counters and restarts the
// uptime clock, without touching any book or the running flag.
func (e *Engine) ResetStatistics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ordersProcessed = 0
	e.tradesExecuted = 0
	e.startTime = time.Now()
}

// UpdateConfig swaps in a new risk-limit configuration, effective for
// every submission from this call onward.
func (e *Engine) UpdateConfig(cfg config.EngineConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = cfg
}

// GetConfig returns the engine's current risk-limit configuration.
func (e *Engine) GetConfig() config.EngineConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// Status renders a short human-readable summary of engine activity.
func (e *Engine) Status() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state := "stopped"
	if e.running {
		state = "running"
	}
	return sprintStatus(state, len(e.books), e.ordersProcessed, e.tradesExecuted)
}

// OrderBookState renders symbol's book as a debug dump, or a
// "no such symbol" message if it isn't registered.
func (e *Engine) OrderBookState(symbol string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ob, ok := e.books[symbol]
	if !ok {
		return "no such symbol: " + symbol
	}
	return ob.String()
}

// CleanupEmptyOrderBooks deregisters every symbol whose book currently
// has no resting orders, bounding memory in a long-running gateway
// with high symbol churn.
func (e *Engine) CleanupEmptyOrderBooks() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for sym, ob := range e.books {
		if ob.OrderCount() == 0 {
			delete(e.books, sym)
			removed++
		}
	}
	e.metrics.ActiveSymbols.Set(float64(len(e.books)))
	return removed
}
