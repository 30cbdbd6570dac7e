package engine

import (
	"math/rand/v2"

	"bot_arena/internal/domain"
	"bot_arena/internal/market"
)

// ProviderFactory builds a fresh price provider for one round.
type ProviderFactory func(startPrice float64, t domain.AssetType, rng *rand.Rand) market.PriceProvider

// RoundParams fully determines one simulation round. Rounds sharing an
// asset factory are otherwise independent of each other.
type RoundParams struct {
	StartPrice float64
	AssetType  domain.AssetType
	Ticks      int
	Costs      domain.CostCalculator
	Assets     *domain.AssetFactory
	Provider   ProviderFactory
	Traders    TraderFactory
	Rng        *rand.Rand
}

// RoundResult is what a round hands back to the aggregation layer: the
// traders' scorecards in factory order and the realized price path.
type RoundResult struct {
	Scorecards []domain.Scorecard
	Path       []float64
}

// RunRound executes one full round: warm-up, the configured number of
// ticks, evaluation, then trader disposal. It is strictly sequential;
// parallelism lives one level up in the arena.
func RunRound(p RoundParams) RoundResult {
	provider := p.Provider(p.StartPrice, p.AssetType, p.Rng)

	m := NewMarketplace(provider, p.Costs, p.Assets)
	m.RunWarmup()

	traders := p.Traders.Create(p.Rng)
	m.Subscribe(traders...)

	for tick := 0; tick < p.Ticks; tick++ {
		m.MakeTick()
	}

	cards := make([]domain.Scorecard, len(traders))
	for i, trader := range traders {
		cards[i] = trader.Scorecard()
	}

	// Traders are released before the scorecards leave the round, so no
	// receipt can arrive after evaluation.
	for _, trader := range traders {
		trader.Close()
	}

	return RoundResult{Scorecards: cards, Path: market.PathValues(provider)}
}
