package httpapi

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oceanbook/matching-engine/pkg/model"
)

// tradeFeed fans out every trade the engine produces to the currently
// connected WebSocket clients. Unlike a generic pub-sub, subscription
// lifetime is tied directly to a request context: a client's channel
// is registered and torn down without a paired explicit Unsubscribe
// call, since handleTradeStream's connection loop already owns a
// context that ends when the socket does.
type tradeFeed struct {
	mu   sync.RWMutex
	subs map[chan model.Trade]struct{}

	dropped uint64 // trades a slow subscriber's buffer couldn't absorb
}

func newTradeFeed() *tradeFeed {
	return &tradeFeed{subs: make(map[chan model.Trade]struct{})}
}

// subscribe registers a new buffered channel and arranges for it to be
// deregistered and closed once ctx is done. buffer sizes the channel;
// a subscriber that falls behind by more than buffer trades starts
// missing them rather than backing up publish.
func (f *tradeFeed) subscribe(ctx context.Context, buffer int) <-chan model.Trade {
	ch := make(chan model.Trade, buffer)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
		close(ch)
	}()

	return ch
}

// publish delivers t to every current subscriber without blocking. A
// subscriber whose buffer is full is skipped for this trade and the
// drop is counted rather than retried.
func (f *tradeFeed) publish(t model.Trade) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- t:
		default:
			atomic.AddUint64(&f.dropped, 1)
		}
	}
}

// droppedCount reports how many trades have been skipped for slow
// subscribers since the feed was created.
func (f *tradeFeed) droppedCount() uint64 {
	return atomic.LoadUint64(&f.dropped)
}
