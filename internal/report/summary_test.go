package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot_arena/internal/arena"
	"bot_arena/internal/domain"
)

func card(name string, profit float64, transactions int) domain.Scorecard {
	return domain.Scorecard{
		Name:           name,
		InitialFunds:   10000,
		RealizedProfit: profit,
		RelativeProfit: profit / 10000,
		TotalAssets:    10000 + profit,
		Transactions:   transactions,
	}
}

// fixedResults builds three rounds where alpha wins twice and beta once.
func fixedResults() arena.Results {
	return arena.Results{
		Requested: 3,
		Done:      3,
		BotNames:  []string{"alpha", "beta"},
		Scorecards: [][]domain.Scorecard{
			{card("alpha", 100, 2), card("alpha", 50, 1), card("alpha", 10, 1)},
			{card("beta", 20, 3), card("beta", 60, 2), card("beta", 5, 0)},
		},
		FinalPrices: []float64{100, 110, 95},
		Paths:       [][]float64{{100, 100}, {100, 110}, {100, 95}},
	}
}

func TestSummary(t *testing.T) {
	var buf strings.Builder
	Summary(NewOutput(&buf), fixedResults(), RealizedProfit)
	out := buf.String()

	assert.Contains(t, out, "0: alpha")
	assert.Contains(t, out, "1: beta")
	assert.Contains(t, out, "Winner: 0: alpha")
	assert.Contains(t, out, "Average KPI over all runs:")
	assert.Contains(t, out, "Asset price development during this time:")
	assert.NotContains(t, out, "Partial results")
}

func TestSummaryPartialHeader(t *testing.T) {
	results := fixedResults()
	results.Requested = 10

	var buf strings.Builder
	Summary(NewOutput(&buf), results, RealizedProfit)

	assert.Contains(t, buf.String(), "Partial results, done 3 / 10 rounds")
}

func TestSummaryEmptyResults(t *testing.T) {
	var buf strings.Builder
	Summary(NewOutput(&buf), arena.Results{Requested: 5}, RealizedProfit)

	assert.Contains(t, buf.String(), "No completed rounds")
}

func TestRoundWinners(t *testing.T) {
	results := fixedResults()
	winners := roundWinners(results.Scorecards, RealizedProfit)

	require.Equal(t, []int{0, 1, 0}, winners)

	t.Run("ties go to the lower index", func(t *testing.T) {
		tied := [][]domain.Scorecard{
			{card("a", 10, 0)},
			{card("b", 10, 0)},
		}
		assert.Equal(t, []int{0}, roundWinners(tied, RealizedProfit))
	})
}

func TestWinsPerBotOrdering(t *testing.T) {
	ranking := winsPerBot([]int{2, 0, 2, 1, 2, 0})

	require.Len(t, ranking, 3)
	assert.Equal(t, botWins{bot: 2, wins: 3}, ranking[0])
	assert.Equal(t, botWins{bot: 0, wins: 2}, ranking[1])
	assert.Equal(t, botWins{bot: 1, wins: 1}, ranking[2])
}

func TestKPISelectors(t *testing.T) {
	c := card("x", 500, 1)
	assert.Equal(t, 500.0, RealizedProfit(c))
	assert.Equal(t, 0.05, RelativeProfit(c))
	assert.Equal(t, 10500.0, TotalAssets(c))
}

func TestDiscardOutput(t *testing.T) {
	// Must simply not panic.
	Summary(Discard, fixedResults(), RealizedProfit)
}
