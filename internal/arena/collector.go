package arena

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"bot_arena/internal/domain"
	"bot_arena/internal/engine"
)

// Sink receives finished rounds for persistence. Implementations must be
// safe for concurrent calls; the storage layer serializes writes internally.
type Sink interface {
	SaveRound(round int, cards []domain.Scorecard, path []float64)
}

// Results is a point-in-time view of an aggregation. Scorecards is indexed
// [bot][round]; rounds appear in completion order, which differs from round
// number under parallel execution.
type Results struct {
	Requested   int
	Done        int
	Failed      int
	BotNames    []string
	Scorecards  [][]domain.Scorecard
	FinalPrices []float64
	Paths       [][]float64
}

// Partial reports whether rounds are still outstanding.
func (r Results) Partial() bool {
	return r.Done+r.Failed < r.Requested
}

// Collector aggregates round results across workers. Progress is logged on
// the first five rounds, every sqrt(total) rounds after that, and on the
// last one, with a completion estimate extrapolated from elapsed time.
type Collector struct {
	mu sync.Mutex

	requested int
	interval  int
	started   time.Time
	log       *slog.Logger
	sink      Sink

	done       int
	failed     int
	scorecards [][]domain.Scorecard
	paths      [][]float64
}

// NewCollector prepares an aggregator for `rounds` rounds of `bots` traders.
// sink may be nil when results are not persisted.
func NewCollector(rounds, bots int, log *slog.Logger, sink Sink) *Collector {
	return &Collector{
		requested:  rounds,
		interval:   max(1, int(math.Sqrt(float64(rounds)))),
		started:    time.Now(),
		log:        log,
		sink:       sink,
		scorecards: make([][]domain.Scorecard, bots),
		paths:      make([][]float64, 0, rounds),
	}
}

// AddRound files one finished round. Safe for concurrent use.
func (c *Collector) AddRound(round int, r engine.RoundResult) {
	c.mu.Lock()
	for i, card := range r.Scorecards {
		c.scorecards[i] = append(c.scorecards[i], card)
	}
	c.paths = append(c.paths, r.Path)
	c.done++
	done := c.done
	if done+c.failed > c.requested {
		c.mu.Unlock()
		panic("collector: completed rounds exceed requested rounds")
	}
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.SaveRound(round, r.Scorecards, r.Path)
	}
	c.reportProgress(done)
}

// AddFailure records a round aborted by a panic. The failed round's partial
// state never reaches the aggregate.
func (c *Collector) AddFailure(round int, err error) {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()

	c.log.Error("round failed", "round", round, "error", err)
}

func (c *Collector) reportProgress(done int) {
	if done >= 5 && done%c.interval != 0 && done != c.requested {
		return
	}

	elapsed := time.Since(c.started)
	perRound := elapsed / time.Duration(done)
	remaining := perRound * time.Duration(c.requested-done)

	c.log.Info("progress",
		"done", done,
		"total", c.requested,
		"eta", time.Now().Add(remaining).Format("15:04:05"),
		"remaining", remaining.Round(time.Second),
	)
}

// Snapshot copies the current aggregate so reporting can run while rounds
// are still completing.
func (c *Collector) Snapshot() Results {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Results{
		Requested:  c.requested,
		Done:       c.done,
		Failed:     c.failed,
		Scorecards: make([][]domain.Scorecard, len(c.scorecards)),
		Paths:      make([][]float64, len(c.paths)),
	}
	for i, cards := range c.scorecards {
		r.Scorecards[i] = append([]domain.Scorecard(nil), cards...)
	}
	for i, p := range c.paths {
		r.Paths[i] = p
		if len(p) > 0 {
			r.FinalPrices = append(r.FinalPrices, p[len(p)-1])
		}
	}
	for _, cards := range r.Scorecards {
		if len(cards) > 0 {
			r.BotNames = append(r.BotNames, cards[0].Name)
		}
	}
	return r
}
