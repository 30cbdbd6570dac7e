package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/google/uuid"

	"bot_arena/internal/arena"
	"bot_arena/internal/domain"
	"bot_arena/internal/engine"
	"bot_arena/internal/infra"
	"bot_arena/internal/infra/storage"
	"bot_arena/internal/market"
	"bot_arena/internal/report"
	"bot_arena/internal/strategy"
)

// Bootstrap orchestrates the application startup sequence and owns the
// wiring between config, storage, the batch runner and reporting.
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, installs the logger and opens storage.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.DBFile)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("✅ Database initialized", "file", cfg.Storage.DBFile)
	}

	return nil
}

// Shutdown flushes pending storage writes.
func (b *Bootstrap) Shutdown() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Error("storage close failed", "error", err)
		}
	}
}

// Run executes the configured batch and writes the report. On context
// cancellation the batch is abandoned mid-flight and the report covers the
// rounds finished so far.
func (b *Bootstrap) Run(ctx context.Context) error {
	cfg := b.Config

	template, label, err := b.buildTemplate()
	if err != nil {
		return err
	}

	runID := uuid.New()

	var sink arena.Sink
	if b.Storage != nil {
		sink = b.Storage.StartRun(runID, label, cfg.Arena.Rounds, cfg.Arena.Ticks, cfg.Arena.Seed)
	}

	collector := arena.NewCollector(cfg.Arena.Rounds, template.Traders.Count(), slog.Default(), sink)

	runner := &arena.BatchRunner{
		RunID:     runID,
		Rounds:    cfg.Arena.Rounds,
		Workers:   cfg.Arena.Workers,
		BaseSeed:  cfg.Arena.Seed,
		Label:     label,
		Template:  template,
		Log:       slog.Default(),
		Collector: collector,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("interrupted, reporting partial results")
	}

	results := collector.Snapshot()
	b.report(results)

	stats := infra.Stats.Snapshot()
	slog.Info("batch finished",
		"run_id", runID,
		"rounds_completed", stats.RoundsCompleted,
		"rounds_failed", stats.RoundsFailed,
		"orders_placed", stats.OrdersPlaced,
		"orders_filled", stats.OrdersFilled,
		"orders_cancelled", stats.OrdersCancelled,
		"avg_round_time", stats.AvgRoundTime,
	)
	return nil
}

// buildTemplate translates config into the per-round parameter template.
// The template's Rng stays nil; the runner seeds one per round.
func (b *Bootstrap) buildTemplate() (engine.RoundParams, string, error) {
	cfg := b.Config
	assetType := domain.AssetType{Name: cfg.Arena.AssetName}

	provider, label, err := b.buildProvider(assetType)
	if err != nil {
		return engine.RoundParams{}, "", err
	}

	costs, err := buildCosts(cfg)
	if err != nil {
		return engine.RoundParams{}, "", err
	}

	traders, err := buildTraderFactory(cfg, assetType)
	if err != nil {
		return engine.RoundParams{}, "", err
	}

	return engine.RoundParams{
		StartPrice: cfg.Arena.StartPrice,
		AssetType:  assetType,
		Ticks:      cfg.Arena.Ticks,
		Costs:      costs,
		Assets:     domain.NewAssetFactory(),
		Provider:   provider,
		Traders:    traders,
	}, label, nil
}

func (b *Bootstrap) buildProvider(assetType domain.AssetType) (engine.ProviderFactory, string, error) {
	cfg := b.Config

	if cfg.Prices.CSVFile != "" {
		prices, err := infra.LoadPricesCSV(cfg.Prices.CSVFile)
		if err != nil {
			return nil, "", err
		}
		factory := func(_ float64, t domain.AssetType, _ *rand.Rand) market.PriceProvider {
			return market.NewReplay(t, prices)
		}
		return factory, fmt.Sprintf("REPLAY %s", cfg.Prices.CSVFile), nil
	}

	var alternatives []market.Alternative
	switch cfg.Prices.Model {
	case "balanced":
		alternatives = market.BalancedAlternatives()
	case "rising":
		alternatives = market.RisingAlternatives()
	case "falling":
		alternatives = market.FallingAlternatives()
	default:
		return nil, "", fmt.Errorf("unknown price model %q", cfg.Prices.Model)
	}

	factory := func(startPrice float64, t domain.AssetType, rng *rand.Rand) market.PriceProvider {
		return market.NewSimulator(t, startPrice, rng, alternatives)
	}
	return factory, cfg.Prices.Model, nil
}

func buildCosts(cfg *infra.Config) (domain.CostCalculator, error) {
	switch cfg.Fees.Schedule {
	case "free":
		return domain.FreeCalculator{}, nil
	case "flat":
		return domain.FlatCalculator{Amount: cfg.Fees.FlatFee}, nil
	case "mini":
		return domain.MiniCourtage(), nil
	case "small":
		return domain.SmallCourtage(), nil
	case "medium":
		return domain.MediumCourtage(), nil
	default:
		return nil, fmt.Errorf("unknown fee schedule %q", cfg.Fees.Schedule)
	}
}

func buildTraderFactory(cfg *infra.Config, assetType domain.AssetType) (engine.TraderFactory, error) {
	buys := strategy.Buys()
	if len(cfg.Strategies.Buys) > 0 {
		buys = nil
		for _, name := range cfg.Strategies.Buys {
			fn, ok := strategy.LookupBuy(name)
			if !ok {
				return nil, fmt.Errorf("unknown buy strategy %q", name)
			}
			buys = append(buys, strategy.NamedBuy{Name: name, Fn: fn})
		}
	}

	sells := strategy.Sells()
	if len(cfg.Strategies.Sells) > 0 {
		sells = nil
		for _, name := range cfg.Strategies.Sells {
			fn, ok := strategy.LookupSell(name)
			if !ok {
				return nil, fmt.Errorf("unknown sell strategy %q", name)
			}
			sells = append(sells, strategy.NamedSell{Name: name, Fn: fn})
		}
	}

	return engine.StrategiesFactory{
		StartMoney: cfg.Arena.StartMoney,
		AssetType:  assetType,
		Buys:       buys,
		Sells:      sells,
	}, nil
}

// report writes the summary to stdout and, when configured, to a file, and
// exports the price path chart.
func (b *Bootstrap) report(results arena.Results) {
	report.Summary(report.NewOutput(os.Stdout), results, report.RealizedProfit)

	if path := b.Config.Report.OutFile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			slog.Error("report file", "error", err)
		} else {
			report.Summary(report.NewOutput(f), results, report.RealizedProfit)
			f.Close()
			slog.Info("report written", "file", path)
		}
	}

	if path := b.Config.Report.ChartFile; path != "" && len(results.Paths) > 0 {
		if err := report.SaveChart(results.Paths, path); err != nil {
			slog.Error("chart export", "error", err)
		} else {
			slog.Info("chart written", "file", path)
		}
	}
}
