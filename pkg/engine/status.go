package engine

import "fmt"

// sprintStatus formats Engine.Status's summary line.
func sprintStatus(state string, symbols int, ordersProcessed, tradesExecuted uint64) string {
	return fmt.Sprintf("engine[%s] symbols=%d orders_processed=%d trades_executed=%d", state, symbols, ordersProcessed, tradesExecuted)
}
