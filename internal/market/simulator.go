package market

import (
	"math"
	"math/rand/v2"

	"bot_arena/internal/domain"
)

// ChangeFunc maps the previous price to the next one.
type ChangeFunc func(price float64) float64

// Alternative is one weighted price move the simulator can sample.
type Alternative struct {
	Odds   float64
	Change ChangeFunc
}

// FactorAlternative is a move that multiplies the price by a fixed factor.
func FactorAlternative(odds, factor float64) Alternative {
	return Alternative{Odds: odds, Change: func(p float64) float64 { return p * factor }}
}

const weightEpsilon = 1e-3

// Simulator is a stochastic price provider. Each tick it samples one of
// the weighted alternatives and applies it to the previous price. The
// random source is injected so rounds stay independently seedable.
type Simulator struct {
	assetType    domain.AssetType
	rng          *rand.Rand
	alternatives []Alternative
	prices       []domain.AssetPrice
}

// NewSimulator seeds tick 0 with the initial price. The alternatives'
// odds must sum to 1 within a small epsilon; anything else is a
// configuration error and panics.
func NewSimulator(t domain.AssetType, initialPrice float64, rng *rand.Rand, alternatives []Alternative) *Simulator {
	sum := 0.0
	for _, alt := range alternatives {
		sum += alt.Odds
	}
	if math.Abs(sum-1) > weightEpsilon {
		domain.Violation(domain.ErrBadWeights, "sum %f", sum)
	}

	return &Simulator{
		assetType:    t,
		rng:          rng,
		alternatives: alternatives,
		prices:       []domain.AssetPrice{{Asset: t, Tick: 0, Price: initialPrice}},
	}
}

func (s *Simulator) AssetType() domain.AssetType { return s.assetType }

func (s *Simulator) TicksSimulated() int { return len(s.prices) - 1 }

func (s *Simulator) LatestPrice() domain.AssetPrice { return s.prices[len(s.prices)-1] }

func (s *Simulator) Prices() []domain.AssetPrice { return s.prices }

func (s *Simulator) LastPrices(k int) []domain.AssetPrice {
	return lastDescending(s.prices, k)
}

// MakeTick samples one alternative by walking the cumulative odds and
// appends the changed price at the next tick.
func (s *Simulator) MakeTick() {
	current := s.prices[len(s.prices)-1]

	chance := s.rng.Float64()
	picked := s.alternatives[len(s.alternatives)-1]
	for _, alt := range s.alternatives[:len(s.alternatives)-1] {
		if chance < alt.Odds {
			picked = alt
			break
		}
		chance -= alt.Odds
	}

	s.prices = append(s.prices, domain.AssetPrice{
		Asset: s.assetType,
		Tick:  current.Tick + 1,
		Price: picked.Change(current.Price),
	})
}

// lastDescending returns up to k entries of the simulated prefix, newest
// tick first.
func lastDescending(prices []domain.AssetPrice, k int) []domain.AssetPrice {
	if k > len(prices) {
		k = len(prices)
	}
	out := make([]domain.AssetPrice, k)
	for i := 0; i < k; i++ {
		out[i] = prices[len(prices)-1-i]
	}
	return out
}

// Preset alternative sets mirroring the balanced, slowly rising and slowly
// falling market shapes used for strategy comparison.

func BalancedAlternatives() []Alternative {
	return []Alternative{
		FactorAlternative(0.3, 1),
		FactorAlternative(0.3, 1.01),
		FactorAlternative(0.3, 0.99),
		FactorAlternative(0.04, 1.03),
		FactorAlternative(0.04, 0.97),
		FactorAlternative(0.01, 1.05),
		FactorAlternative(0.01, 0.95),
	}
}

func RisingAlternatives() []Alternative {
	return []Alternative{
		FactorAlternative(0.3, 1),
		FactorAlternative(0.4, 1.01),
		FactorAlternative(0.2, 0.99),
		FactorAlternative(0.06, 1.03),
		FactorAlternative(0.02, 0.97),
		FactorAlternative(0.015, 1.05),
		FactorAlternative(0.005, 0.95),
	}
}

func FallingAlternatives() []Alternative {
	return []Alternative{
		FactorAlternative(0.3, 1),
		FactorAlternative(0.2, 1.01),
		FactorAlternative(0.4, 0.99),
		FactorAlternative(0.02, 1.03),
		FactorAlternative(0.06, 0.97),
		FactorAlternative(0.005, 1.05),
		FactorAlternative(0.015, 0.95),
	}
}
