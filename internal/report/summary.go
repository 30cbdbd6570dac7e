package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"bot_arena/internal/arena"
	"bot_arena/internal/domain"
)

// KPI extracts the figure a summary compares traders by.
type KPI func(domain.Scorecard) float64

func RealizedProfit(s domain.Scorecard) float64 { return s.RealizedProfit }
func RelativeProfit(s domain.Scorecard) float64 { return s.RelativeProfit }
func TotalAssets(s domain.Scorecard) float64    { return s.TotalAssets }

// Summary writes the full batch report: the per-round win distribution, the
// overall winner's KPI distribution, a ranking of every bot that won at
// least one round, and the distribution of final asset prices. It works on
// a snapshot, so it can be produced mid-batch; a partial snapshot is
// flagged in the header.
func Summary(out Output, res arena.Results, kpi KPI) {
	if res.Done == 0 {
		out.WriteLine("No completed rounds to report on.")
		return
	}

	if res.Partial() {
		out.WriteLine(fmt.Sprintf("Partial results, done %d / %d rounds", res.Done, res.Requested))
		out.WriteLine("")
	}

	numBots := len(res.Scorecards)
	botNames := make([]string, numBots)
	for i, name := range res.BotNames {
		botNames[i] = fmt.Sprintf("%d: %s", i, name)
	}
	for _, name := range botNames {
		out.WriteLine(name)
	}

	winners := roundWinners(res.Scorecards, kpi)

	buckets := make([]arena.Bucket, 0, numBots+1)
	for i := -1; i < numBots; i++ {
		buckets = append(buckets, arena.Bucket{Low: float64(i), High: float64(i + 1)})
	}
	winValues := make([]float64, len(winners))
	for i, w := range winners {
		winValues[i] = float64(w)
	}
	printLines(out, arena.NewHistogram(buckets, winValues).RenderWithMaxStars(50))

	ranking := winsPerBot(winners)
	overall := ranking[0].bot

	out.WriteLine("")
	out.WriteLine(fmt.Sprintf("Winner: %s", botNames[overall]))
	out.WriteLine("Distribution")
	out.WriteLine("")

	winnerKPIs := make([]float64, len(res.Scorecards[overall]))
	for i, card := range res.Scorecards[overall] {
		winnerKPIs[i] = kpi(card)
	}
	printLines(out, arena.NewEqualWidth(20, winnerKPIs).RenderWithMaxStars(50))

	out.WriteLine("")
	out.WriteLine("Average KPI over all runs:")
	printRanking(out, res, ranking, kpi)

	if len(res.FinalPrices) > 0 {
		out.WriteLine("")
		out.WriteLine("Asset price development during this time:")
		printLines(out, arena.NewEqualWidth(20, res.FinalPrices).RenderWithMaxStars(30))
	}
}

// roundWinners picks, per round, the first bot achieving the round's best
// KPI. Ties go to the lower bot index.
func roundWinners(scorecards [][]domain.Scorecard, kpi KPI) []int {
	rounds := len(scorecards[0])
	winners := make([]int, rounds)

	for round := 0; round < rounds; round++ {
		best := 0
		bestKPI := kpi(scorecards[0][round])
		for bot := 1; bot < len(scorecards); bot++ {
			if v := kpi(scorecards[bot][round]); v > bestKPI {
				best, bestKPI = bot, v
			}
		}
		winners[round] = best
	}
	return winners
}

type botWins struct {
	bot  int
	wins int
}

// winsPerBot counts wins and orders descending. Only bots with at least one
// win appear.
func winsPerBot(winners []int) []botWins {
	counts := map[int]int{}
	for _, w := range winners {
		counts[w]++
	}

	ranking := make([]botWins, 0, len(counts))
	for bot, wins := range counts {
		ranking = append(ranking, botWins{bot: bot, wins: wins})
	}
	// Descending by wins, ties broken by bot index for stable output.
	slices.SortFunc(ranking, func(a, b botWins) int {
		if a.wins != b.wins {
			return b.wins - a.wins
		}
		return a.bot - b.bot
	})
	return ranking
}

func printRanking(out Output, res arena.Results, ranking []botWins, kpi KPI) {
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.Header("Wins", "Bot", "Avg KPI", "Avg transactions")

	for _, entry := range ranking {
		cards := res.Scorecards[entry.bot]

		kpis := make([]decimal.Decimal, len(cards))
		txs := make([]decimal.Decimal, len(cards))
		for i, card := range cards {
			kpis[i] = decimal.NewFromFloat(kpi(card))
			txs[i] = decimal.NewFromInt(int64(card.Transactions))
		}
		avgKPI := decimal.Avg(kpis[0], kpis[1:]...).Round(2)
		avgTx := decimal.Avg(txs[0], txs[1:]...).Round(3)

		table.Append(
			fmt.Sprintf("%d", entry.wins),
			cards[0].Name,
			avgKPI.String(),
			avgTx.String(),
		)
	}
	table.Render()

	printLines(out, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"))
}

func printLines(out Output, lines []string) {
	for _, line := range lines {
		out.WriteLine(line)
	}
}
