package book

import (
	"container/list"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/oceanbook/matching-engine/pkg/model"
)

// priceComparator orders decimal prices ascending. Both the bid and
// ask trees use this single comparator; direction (best-bid-first vs
// best-ask-first) is expressed by which end of the tree a caller reads
// from, not by a second comparator. decimal.Decimal values compare by
// numeric value via Cmp regardless of scale, so "150" and "150.00"
// collide correctly as the same level.
func priceComparator(a, b interface{}) int {
	pa := a.(decimal.Decimal)
	pb := b.(decimal.Decimal)
	return pa.Cmp(pb)
}

// priceLevel is the FIFO queue of resting orders sharing one price on
// one side. A doubly linked list gives O(1) push-back, pop-front, and
// removal-by-handle, which the location index in orderbook.go relies
// on for O(1) cancellation.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List // list.Element.Value = *model.Order
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

func (pl *priceLevel) pushBack(o *model.Order) *list.Element {
	return pl.orders.PushBack(o)
}

func (pl *priceLevel) front() *list.Element {
	return pl.orders.Front()
}

func (pl *priceLevel) remove(e *list.Element) {
	pl.orders.Remove(e)
}

func (pl *priceLevel) empty() bool {
	return pl.orders.Len() == 0
}

func (pl *priceLevel) len() int {
	return pl.orders.Len()
}

// totalRemaining sums Remaining across every order still queued at
// this level.
func (pl *priceLevel) totalRemaining() uint64 {
	var total uint64
	for e := pl.orders.Front(); e != nil; e = e.Next() {
		total += e.Value.(*model.Order).Remaining
	}
	return total
}

// levelTree is a thin wrapper around a red-black tree keyed by decimal
// price, giving O(log N) best-level lookup and insertion.
type levelTree struct {
	tree *redblacktree.Tree
}

func newLevelTree() *levelTree {
	return &levelTree{tree: redblacktree.NewWith(priceComparator)}
}

func (t *levelTree) get(price decimal.Decimal) (*priceLevel, bool) {
	v, ok := t.tree.Get(price)
	if !ok {
		return nil, false
	}
	return v.(*priceLevel), true
}

func (t *levelTree) getOrCreate(price decimal.Decimal) *priceLevel {
	if lvl, ok := t.get(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	t.tree.Put(price, lvl)
	return lvl
}

func (t *levelTree) delete(price decimal.Decimal) {
	t.tree.Remove(price)
}

func (t *levelTree) empty() bool {
	return t.tree.Empty()
}

func (t *levelTree) size() int {
	return t.tree.Size()
}

// lowest returns the price level with the smallest key, or nil.
func (t *levelTree) lowest() *priceLevel {
	node := t.tree.Left()
	if node == nil {
		return nil
	}
	return node.Value.(*priceLevel)
}

// highest returns the price level with the largest key, or nil.
func (t *levelTree) highest() *priceLevel {
	node := t.tree.Right()
	if node == nil {
		return nil
	}
	return node.Value.(*priceLevel)
}

// levelsAscending returns up to n levels ordered from the lowest price
// upward (used for the ask side, which is best-first ascending).
func (t *levelTree) levelsAscending(n int) []*priceLevel {
	keys := t.tree.Keys()
	out := make([]*priceLevel, 0, min(n, len(keys)))
	for i := 0; i < len(keys) && len(out) < n; i++ {
		lvl, _ := t.get(keys[i].(decimal.Decimal))
		out = append(out, lvl)
	}
	return out
}

// levelsDescending returns up to n levels ordered from the highest
// price downward (used for the bid side, which is best-first
// descending).
func (t *levelTree) levelsDescending(n int) []*priceLevel {
	keys := t.tree.Keys()
	out := make([]*priceLevel, 0, min(n, len(keys)))
	for i := len(keys) - 1; i >= 0 && len(out) < n; i-- {
		lvl, _ := t.get(keys[i].(decimal.Decimal))
		out = append(out, lvl)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
