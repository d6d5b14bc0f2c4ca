package engine

import "github.com/oceanbook/matching-engine/pkg/model"

// TradeObserver is notified of every trade produced by a submission.
// Returning a non-nil error aborts the remaining observers for that
// event; it never affects the trades already returned to the submitter.
type TradeObserver func(model.Trade) error

// OrderObserver is notified once per submission with the order's final
// state (filled/resting) after matching completes.
type OrderObserver func(model.Order) error

// safeCallTrade converts an observer panic into an error so a single
// misbehaving callback cannot take down the submitting goroutine.
func safeCallTrade(obs TradeObserver, t model.Trade) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observerPanic{r}
		}
	}()
	return obs(t)
}

func safeCallOrder(obs OrderObserver, o model.Order) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observerPanic{r}
		}
	}()
	return obs(o)
}

type observerPanic struct{ value interface{} }

func (p observerPanic) Error() string {
	return "observer panicked"
}
