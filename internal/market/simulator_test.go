package market

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"bot_arena/internal/domain"
)

func testAsset() domain.AssetType { return domain.AssetType{Name: "A"} }

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestNewSimulatorValidatesWeights(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on bad weights")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, domain.ErrBadWeights) {
			t.Fatalf("expected ErrBadWeights, got %v", r)
		}
	}()
	NewSimulator(testAsset(), 100, testRand(1), []Alternative{
		FactorAlternative(0.5, 1),
		FactorAlternative(0.4, 1.01),
	})
}

func TestSimulatorTicks(t *testing.T) {
	s := NewSimulator(testAsset(), 100, testRand(1), BalancedAlternatives())

	if s.TicksSimulated() != 0 {
		t.Fatalf("tick count should start at 0, got %d", s.TicksSimulated())
	}
	if s.LatestPrice().Price != 100 {
		t.Fatalf("tick 0 should carry the initial price, got %f", s.LatestPrice().Price)
	}

	for i := 0; i < 50; i++ {
		s.MakeTick()
	}

	if s.TicksSimulated() != 50 {
		t.Errorf("expected 50 ticks, got %d", s.TicksSimulated())
	}
	if got := len(s.Prices()); got != 51 {
		t.Errorf("expected 51 prices including the seed, got %d", got)
	}
	for _, p := range s.Prices() {
		if p.Price <= 0 {
			t.Fatalf("price must stay positive, got %f at tick %d", p.Price, p.Tick)
		}
	}
}

func TestSimulatorDeterministicPerSeed(t *testing.T) {
	run := func(seed uint64) []float64 {
		s := NewSimulator(testAsset(), 100, testRand(seed), BalancedAlternatives())
		for i := 0; i < 100; i++ {
			s.MakeTick()
		}
		return PathValues(s)
	}

	a, b := run(7), run(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at tick %d: %f vs %f", i, a[i], b[i])
		}
	}

	c := run(8)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical paths")
	}
}

func TestLastPricesDescending(t *testing.T) {
	s := NewSimulator(testAsset(), 100, testRand(1), BalancedAlternatives())
	for i := 0; i < 20; i++ {
		s.MakeTick()
	}

	last := s.LastPrices(10)
	if len(last) != 10 {
		t.Fatalf("expected 10 prices, got %d", len(last))
	}
	for i := range last {
		if want := 20 - i; last[i].Tick != want {
			t.Errorf("position %d: expected tick %d, got %d", i, want, last[i].Tick)
		}
	}

	t.Run("k larger than history", func(t *testing.T) {
		s := NewSimulator(testAsset(), 100, testRand(1), BalancedAlternatives())
		s.MakeTick()
		if got := len(s.LastPrices(10)); got != 2 {
			t.Errorf("expected 2 prices, got %d", got)
		}
	})
}

func TestPresetWeightsSumToOne(t *testing.T) {
	presets := map[string][]Alternative{
		"balanced": BalancedAlternatives(),
		"rising":   RisingAlternatives(),
		"falling":  FallingAlternatives(),
	}
	for name, alternatives := range presets {
		t.Run(name, func(t *testing.T) {
			sum := 0.0
			for _, alt := range alternatives {
				sum += alt.Odds
			}
			if math.Abs(sum-1) > 1e-3 {
				t.Errorf("weights sum to %f", sum)
			}
		})
	}
}
