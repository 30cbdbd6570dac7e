package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety; rounds running in parallel all
// report into the same instance.
type Metrics struct {
	ordersPlaced    atomic.Uint64
	ordersFilled    atomic.Uint64
	ordersCancelled atomic.Uint64

	roundsCompleted atomic.Uint64
	roundsFailed    atomic.Uint64

	roundSumNs   atomic.Int64
	roundSamples atomic.Uint64
}

// Stats is the singleton metrics instance.
var Stats = &Metrics{}

// RecordOrderPlaced counts an order admitted to a marketplace.
func (m *Metrics) RecordOrderPlaced() {
	m.ordersPlaced.Add(1)
}

// RecordOrderFilled counts a settled order.
func (m *Metrics) RecordOrderFilled() {
	m.ordersFilled.Add(1)
}

// RecordOrderCancelled counts an expired or strategy-cancelled order.
func (m *Metrics) RecordOrderCancelled() {
	m.ordersCancelled.Add(1)
}

// RecordRound records a completed round with its wall-clock duration.
func (m *Metrics) RecordRound(d time.Duration) {
	m.roundsCompleted.Add(1)
	m.roundSumNs.Add(int64(d))
	m.roundSamples.Add(1)
}

// RecordRoundFailure counts a round aborted by an invariant violation.
func (m *Metrics) RecordRoundFailure() {
	m.roundsFailed.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersPlaced    uint64
	OrdersFilled    uint64
	OrdersCancelled uint64
	RoundsCompleted uint64
	RoundsFailed    uint64
	AvgRoundTime    time.Duration
}

// Snapshot returns the current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		OrdersPlaced:    m.ordersPlaced.Load(),
		OrdersFilled:    m.ordersFilled.Load(),
		OrdersCancelled: m.ordersCancelled.Load(),
		RoundsCompleted: m.roundsCompleted.Load(),
		RoundsFailed:    m.roundsFailed.Load(),
	}
	if n := m.roundSamples.Load(); n > 0 {
		s.AvgRoundTime = time.Duration(m.roundSumNs.Load() / int64(n))
	}
	return s
}
