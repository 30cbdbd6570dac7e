// Package market provides tick-by-tick price series: a stochastic
// simulator and a replay provider over a precomputed sequence.
package market

import "bot_arena/internal/domain"

// PriceProvider produces the price series one tick at a time. MakeTick is
// the only way to advance time; the tick count starts at 0 with an initial
// price seeded before any tick is made.
type PriceProvider interface {
	AssetType() domain.AssetType

	// MakeTick advances the series by exactly one tick.
	MakeTick()

	// LatestPrice reflects the highest tick produced so far.
	LatestPrice() domain.AssetPrice

	// TicksSimulated is monotonically increasing, starting at 0.
	TicksSimulated() int

	// LastPrices returns up to k prices in descending tick order,
	// newest first.
	LastPrices(k int) []domain.AssetPrice

	// Prices returns the full series in ascending tick order. Callers
	// must not mutate the returned slice.
	Prices() []domain.AssetPrice
}

// PathValues extracts the raw price values of the full series, in tick order.
func PathValues(p PriceProvider) []float64 {
	prices := p.Prices()
	values := make([]float64, len(prices))
	for i, ap := range prices {
		values[i] = ap.Price
	}
	return values
}
