package domain

import (
	"errors"
	"fmt"
)

// Programmer and configuration errors are raised as panics wrapping one of
// these sentinels. A round that trips one is aborted by the runner; the
// sentinel lets the recovery site classify what went wrong.
var (
	// ErrOrderPrecondition is raised when an order is constructed with a
	// non-positive time-to-live, price or amount, or negative reserved funds.
	ErrOrderPrecondition = errors.New("invalid order construction")

	// ErrOrderTerminal is raised when a terminal order is mutated again.
	ErrOrderTerminal = errors.New("order already terminal")

	// ErrNegativeCash is raised when a trader's cash balance would go negative.
	ErrNegativeCash = errors.New("trader cash below zero")

	// ErrDoubleOffer is raised when an asset is referenced by more than one
	// active sell order.
	ErrDoubleOffer = errors.New("asset offered by two active sell orders")

	// ErrReservedShortfall is raised when a buy order settles for more than
	// its reserved funds, fee excluded.
	ErrReservedShortfall = errors.New("reserved funds below settlement cost")

	// ErrWarmupAfterStart is raised when the warm-up period is requested
	// after ticks have already been simulated.
	ErrWarmupAfterStart = errors.New("warm-up requested after first tick")

	// ErrBadWeights is raised when price-change weights do not sum to 1.
	ErrBadWeights = errors.New("price change weights must sum to 1")

	// ErrBadSeries is raised when a replayed price series is too short or
	// advanced past its horizon.
	ErrBadSeries = errors.New("invalid price series")

	// ErrTraderClosed is raised when a receipt reaches a closed trader.
	ErrTraderClosed = errors.New("receipt delivered to closed trader")
)

// Violation panics with an invariant error. Invariants are programming
// errors, not recoverable conditions; the round worker recovers at its
// boundary and marks the round failed.
func Violation(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}
