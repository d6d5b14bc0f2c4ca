package engine

import (
	"hash/fnv"
	"runtime"

	"github.com/oceanbook/matching-engine/pkg/book"
	"github.com/oceanbook/matching-engine/pkg/model"
)

// ShardedRouter is an alternative concurrency design to the single-lock
// Engine: symbols are hash-partitioned across a fixed pool of
// goroutine actors, each owning a disjoint subset of order books and
// processing its commands one at a time with no locking at all. It
// trades Engine's single global view (observers, cross-symbol
// statistics in one snapshot) for per-symbol wait-free throughput.
type ShardedRouter struct {
	shards []*shard
	n      int
}

// NewShardedRouter starts numShards actor goroutines, each with an
// inbound command buffer of size buf. numShards <= 0 defaults to
// runtime.NumCPU().
func NewShardedRouter(numShards, buf int) *ShardedRouter {
	if numShards <= 0 {
		numShards = runtime.NumCPU()
	}
	r := &ShardedRouter{shards: make([]*shard, numShards), n: numShards}
	for i := range r.shards {
		r.shards[i] = newShard(buf)
	}
	return r
}

// Stop terminates every shard goroutine. In-flight commands may be
// dropped; callers should stop submitting before calling Stop.
func (r *ShardedRouter) Stop() {
	for _, s := range r.shards {
		s.stop()
	}
}

// shardFor returns the shard index owning symbol. The same symbol
// always maps to the same shard for the lifetime of the router.
func (r *ShardedRouter) shardFor(symbol string) int {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return int(h.Sum32()) % r.n
}

// SubmitResult is a shard's reply to a submit command.
type SubmitResult struct {
	Order  model.Order
	Trades []model.Trade
	Err    error
}

// CancelResult is a shard's reply to a cancel command.
type CancelResult struct {
	OK bool
}

// DepthResult is a shard's reply to a depth query.
type DepthResult struct {
	Symbol string
	Bids   []book.LevelSnapshot
	Asks   []book.LevelSnapshot
}

// Submit routes order to the shard owning its symbol and blocks for
// the result. Unlike Engine.Submit, validation failures are reported
// through SubmitResult.Err rather than a direct return, matching the
// request/reply shape a channel actor imposes.
func (r *ShardedRouter) Submit(order model.Order) SubmitResult {
	reply := make(chan SubmitResult, 1)
	r.shards[r.shardFor(order.Symbol)].in <- shardCmd{
		kind:     cmdSubmit,
		order:    order,
		submitTo: reply,
	}
	return <-reply
}

// Cancel routes a cancel to the shard owning symbol.
func (r *ShardedRouter) Cancel(symbol string, id model.OrderID) CancelResult {
	reply := make(chan CancelResult, 1)
	r.shards[r.shardFor(symbol)].in <- shardCmd{
		kind:     cmdCancel,
		symbol:   symbol,
		orderID:  id,
		cancelTo: reply,
	}
	return <-reply
}

// Depth routes a depth query to the shard owning symbol.
func (r *ShardedRouter) Depth(symbol string, levels int) DepthResult {
	reply := make(chan DepthResult, 1)
	r.shards[r.shardFor(symbol)].in <- shardCmd{
		kind:    cmdDepth,
		symbol:  symbol,
		levels:  levels,
		depthTo: reply,
	}
	return <-reply
}

type cmdKind int

const (
	cmdSubmit cmdKind = iota
	cmdCancel
	cmdDepth
)

// shardCmd is the single envelope type sent over a shard's channel;
// exactly one of the reply channels is set per kind.
type shardCmd struct {
	kind cmdKind

	order   model.Order
	symbol  string
	orderID model.OrderID
	levels  int

	submitTo chan SubmitResult
	cancelTo chan CancelResult
	depthTo  chan DepthResult
}

// shard is a single-goroutine actor owning a disjoint subset of
// symbols' order books. No lock is needed: every mutation happens on
// the shard's own goroutine, serialized by the channel.
type shard struct {
	in    chan shardCmd
	quit  chan struct{}
	books map[string]*book.OrderBook
}

func newShard(buf int) *shard {
	s := &shard{
		in:    make(chan shardCmd, buf),
		quit:  make(chan struct{}),
		books: make(map[string]*book.OrderBook),
	}
	go s.loop()
	return s
}

func (s *shard) stop() {
	close(s.quit)
}

func (s *shard) loop() {
	for {
		select {
		case cmd := <-s.in:
			s.handle(cmd)
		case <-s.quit:
			return
		}
	}
}

func (s *shard) getOrCreateBook(symbol string) *book.OrderBook {
	ob, ok := s.books[symbol]
	if !ok {
		ob = book.NewOrderBook(symbol)
		s.books[symbol] = ob
	}
	return ob
}

func (s *shard) handle(cmd shardCmd) {
	switch cmd.kind {
	case cmdSubmit:
		order := cmd.order
		if err := order.Validate(); err != nil {
			cmd.submitTo <- SubmitResult{Err: &model.InvalidOrderError{Reason: err.Error()}}
			return
		}
		ob := s.getOrCreateBook(order.Symbol)
		trades := ob.Add(&order)
		cmd.submitTo <- SubmitResult{Order: order, Trades: trades}
	case cmdCancel:
		ob, ok := s.books[cmd.symbol]
		if !ok {
			cmd.cancelTo <- CancelResult{OK: false}
			return
		}
		cmd.cancelTo <- CancelResult{OK: ob.Cancel(cmd.orderID)}
	case cmdDepth:
		ob := s.getOrCreateBook(cmd.symbol)
		levels := cmd.levels
		if levels <= 0 {
			levels = 10
		}
		cmd.depthTo <- DepthResult{
			Symbol: cmd.symbol,
			Bids:   ob.BidLevels(levels),
			Asks:   ob.AskLevels(levels),
		}
	}
}
