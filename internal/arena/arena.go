package arena

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"bot_arena/internal/engine"
	"bot_arena/internal/infra"
)

// BatchRunner executes many independent rounds of the same configuration on
// a bounded worker pool. Every round derives its own random source from the
// base seed and the round number, so a batch is reproducible regardless of
// scheduling order.
type BatchRunner struct {
	RunID    uuid.UUID
	Rounds   int
	Workers  int
	BaseSeed uint64
	Label    string
	Template engine.RoundParams

	Log       *slog.Logger
	Collector *Collector
}

// Run dispatches all rounds and blocks until every worker drains. A panic
// inside one round is contained to that round: the worker recovers, reports
// the failure, and moves on to the next round.
func (b *BatchRunner) Run() {
	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	b.Log.Info("starting batch",
		"run_id", b.RunID,
		"label", b.Label,
		"rounds", b.Rounds,
		"workers", workers,
		"bots", b.Template.Traders.Count(),
	)

	workCh := make(chan int, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := range workCh {
				b.runOne(round)
			}
		}()
	}

	for round := 0; round < b.Rounds; round++ {
		workCh <- round
	}
	close(workCh)
	wg.Wait()
}

func (b *BatchRunner) runOne(round int) {
	defer func() {
		if r := recover(); r != nil {
			infra.Stats.RecordRoundFailure()
			b.Collector.AddFailure(round, asError(r))
		}
	}()

	params := b.Template
	params.Rng = rand.New(rand.NewPCG(b.BaseSeed, uint64(round)))

	started := time.Now()
	result := engine.RunRound(params)
	infra.Stats.RecordRound(time.Since(started))

	b.Collector.AddRound(round, result)
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
