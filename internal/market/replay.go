package market

import "bot_arena/internal/domain"

// Replay exposes a fixed, precomputed price sequence tick by tick, up to
// its horizon. The first value seeds tick 0.
type Replay struct {
	assetType domain.AssetType
	prices    []domain.AssetPrice
	cursor    int
}

// NewReplay wraps a sequence of at least two prices (the seed plus one
// tick of horizon).
func NewReplay(t domain.AssetType, values []float64) *Replay {
	if len(values) < 2 {
		domain.Violation(domain.ErrBadSeries, "replay needs at least 2 prices, got %d", len(values))
	}
	prices := make([]domain.AssetPrice, len(values))
	for i, v := range values {
		prices[i] = domain.AssetPrice{Asset: t, Tick: i, Price: v}
	}
	return &Replay{assetType: t, prices: prices}
}

func (r *Replay) AssetType() domain.AssetType { return r.assetType }

func (r *Replay) TicksSimulated() int { return r.cursor }

// Horizon is the number of ticks the sequence can still be advanced in total.
func (r *Replay) Horizon() int { return len(r.prices) - 1 }

func (r *Replay) LatestPrice() domain.AssetPrice { return r.prices[r.cursor] }

func (r *Replay) Prices() []domain.AssetPrice { return r.prices[:r.cursor+1] }

func (r *Replay) LastPrices(k int) []domain.AssetPrice {
	return lastDescending(r.prices[:r.cursor+1], k)
}

// MakeTick advances the cursor. Ticking past the horizon is a driver bug.
func (r *Replay) MakeTick() {
	if r.cursor+1 >= len(r.prices) {
		domain.Violation(domain.ErrBadSeries, "replay ticked past horizon %d", r.Horizon())
	}
	r.cursor++
}
