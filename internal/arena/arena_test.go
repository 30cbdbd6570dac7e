package arena

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot_arena/internal/domain"
	"bot_arena/internal/engine"
	"bot_arena/internal/market"
	"bot_arena/internal/strategy"
)

func testAsset() domain.AssetType { return domain.AssetType{Name: "A"} }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testTemplate(ticks int) engine.RoundParams {
	return engine.RoundParams{
		StartPrice: 100,
		AssetType:  testAsset(),
		Ticks:      ticks,
		Costs:      domain.FreeCalculator{},
		Assets:     domain.NewAssetFactory(),
		Provider: func(startPrice float64, at domain.AssetType, rng *rand.Rand) market.PriceProvider {
			return market.NewSimulator(at, startPrice, rng, market.BalancedAlternatives())
		},
		Traders: engine.StrategiesFactory{
			StartMoney: 10000,
			AssetType:  testAsset(),
			Buys:       strategy.Buys()[:2],
			Sells:      strategy.Sells()[:1],
		},
	}
}

func TestBatchRunner(t *testing.T) {
	const rounds = 20
	template := testTemplate(30)
	bots := template.Traders.Count()

	collector := NewCollector(rounds, bots, discardLogger(), nil)
	runner := &BatchRunner{
		RunID:     uuid.New(),
		Rounds:    rounds,
		Workers:   4,
		BaseSeed:  1,
		Template:  template,
		Log:       discardLogger(),
		Collector: collector,
	}

	runner.Run()

	results := collector.Snapshot()
	require.Equal(t, rounds, results.Done)
	require.Equal(t, 0, results.Failed)
	assert.False(t, results.Partial())

	require.Len(t, results.Scorecards, bots)
	for _, cards := range results.Scorecards {
		assert.Len(t, cards, rounds)
	}
	assert.Len(t, results.FinalPrices, rounds)
	assert.Len(t, results.BotNames, bots)
}

func TestHundredRoundsTwoVariants(t *testing.T) {
	if testing.Short() {
		t.Skip("full batch")
	}

	const rounds = 100
	template := testTemplate(200)
	template.Traders = engine.StrategiesFactory{
		StartMoney: 10000,
		AssetType:  testAsset(),
		Buys:       strategy.Buys()[1:2],
		Sells:      strategy.Sells()[1:3],
	}
	require.Equal(t, 2, template.Traders.Count())

	collector := NewCollector(rounds, 2, discardLogger(), nil)
	runner := &BatchRunner{
		RunID:     uuid.New(),
		Rounds:    rounds,
		Workers:   4,
		BaseSeed:  3,
		Template:  template,
		Log:       discardLogger(),
		Collector: collector,
	}
	runner.Run()

	results := collector.Snapshot()
	require.Equal(t, rounds, results.Done)
	require.Len(t, results.Scorecards[0], rounds)
	require.Len(t, results.Scorecards[1], rounds)

	// Every round has exactly one winner, so the wins add up to the
	// round count.
	wins := [2]int{}
	for round := 0; round < rounds; round++ {
		a := results.Scorecards[0][round].RealizedProfit
		b := results.Scorecards[1][round].RealizedProfit
		if b > a {
			wins[1]++
		} else {
			wins[0]++
		}
	}
	assert.Equal(t, rounds, wins[0]+wins[1])
}

func TestBatchRunnerDeterministicSeeds(t *testing.T) {
	run := func(seed uint64) Results {
		template := testTemplate(30)
		collector := NewCollector(5, template.Traders.Count(), discardLogger(), nil)
		runner := &BatchRunner{
			RunID:     uuid.New(),
			Rounds:    5,
			Workers:   1,
			BaseSeed:  seed,
			Template:  template,
			Log:       discardLogger(),
			Collector: collector,
		}
		runner.Run()
		return collector.Snapshot()
	}

	a, b := run(7), run(7)
	for bot := range a.Scorecards {
		for round := range a.Scorecards[bot] {
			assert.Equal(t, a.Scorecards[bot][round], b.Scorecards[bot][round])
		}
	}
}

func TestBatchRunnerIsolatesFailures(t *testing.T) {
	template := testTemplate(10)

	// The third provider construction blows up, taking exactly one round
	// with it.
	var calls atomic.Int64
	template.Provider = func(startPrice float64, at domain.AssetType, rng *rand.Rand) market.PriceProvider {
		if calls.Add(1) == 3 {
			panic(domain.ErrBadSeries)
		}
		return market.NewSimulator(at, startPrice, rng, market.BalancedAlternatives())
	}

	collector := NewCollector(10, template.Traders.Count(), discardLogger(), nil)
	runner := &BatchRunner{
		RunID:     uuid.New(),
		Rounds:    10,
		Workers:   1,
		BaseSeed:  1,
		Template:  template,
		Log:       discardLogger(),
		Collector: collector,
	}

	runner.Run()

	results := collector.Snapshot()
	assert.Equal(t, 9, results.Done)
	assert.Equal(t, 1, results.Failed)
}

func TestCollectorConcurrentAdds(t *testing.T) {
	const rounds = 50
	collector := NewCollector(rounds, 1, discardLogger(), nil)

	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func(round int) {
			defer wg.Done()
			collector.AddRound(round, engine.RoundResult{
				Scorecards: []domain.Scorecard{{Name: "bot", InitialFunds: 1}},
				Path:       []float64{100, 101},
			})
		}(i)
	}
	wg.Wait()

	results := collector.Snapshot()
	assert.Equal(t, rounds, results.Done)
	assert.Len(t, results.Scorecards[0], rounds)
	assert.Len(t, results.FinalPrices, rounds)
	for _, p := range results.FinalPrices {
		assert.Equal(t, 101.0, p)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	rounds []int
}

func (s *recordingSink) SaveRound(round int, cards []domain.Scorecard, path []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, round)
}

func TestCollectorForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	collector := NewCollector(3, 1, discardLogger(), sink)

	for i := 0; i < 3; i++ {
		collector.AddRound(i, engine.RoundResult{
			Scorecards: []domain.Scorecard{{Name: "bot"}},
			Path:       []float64{1},
		})
	}

	assert.ElementsMatch(t, []int{0, 1, 2}, sink.rounds)
}
