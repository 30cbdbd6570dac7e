package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot_arena/internal/domain"
	"bot_arena/internal/market"
	"bot_arena/internal/strategy"
)

func testAsset() domain.AssetType { return domain.AssetType{Name: "A"} }

func testRand() *rand.Rand { return rand.New(rand.NewPCG(1, 0)) }

// constSeries builds a replay series: warm-up plus n ticks at a fixed price.
func constSeries(n int, price float64) []float64 {
	values := make([]float64, HistoryTicks+n+1)
	for i := range values {
		values[i] = price
	}
	return values
}

// buyOnce offers amount at price on the first solicitation only.
func buyOnce(amount int, price float64) strategy.BuyFunc {
	done := false
	return func(ctx *strategy.Context) strategy.BuyPlan {
		if done {
			return strategy.BuyPlan{}
		}
		done = true
		return strategy.BuyPlan{Offers: []strategy.BuyOffer{{Amount: amount, Price: price}}}
	}
}

// sellAllAt consigns the whole position at price whenever anything is held.
func sellAllAt(price float64) strategy.SellFunc {
	return func(ctx *strategy.Context) strategy.SellPlan {
		if len(ctx.Owned) == 0 {
			return strategy.SellPlan{}
		}
		return strategy.SellPlan{Offers: []strategy.SellOffer{{Price: price, Assets: ctx.Owned}}}
	}
}

func newTestMarketplace(series []float64, costs domain.CostCalculator) *Marketplace {
	m := NewMarketplace(market.NewReplay(testAsset(), series), costs, domain.NewAssetFactory())
	m.RunWarmup()
	return m
}

func TestBuyOrderLifecycle(t *testing.T) {
	m := newTestMarketplace(constSeries(3, 100), domain.FreeCalculator{})

	trader := NewTrader("buyer", 10000, testAsset(), buyOnce(10, 100), nil, testRand())
	m.Subscribe(trader)

	// Tick 1: the order is placed and the reservation locked. Settlement
	// only considers orders that existed before the tick, so nothing fills.
	m.MakeTick()
	require.Equal(t, 9000.0, trader.Cash())
	require.Empty(t, trader.Holdings())
	require.Len(t, m.open, 1)

	// Tick 2: the clearing price 100 is at the limit, the order settles.
	m.MakeTick()
	assert.Equal(t, 9000.0, trader.Cash())
	assert.Len(t, trader.Holdings(), 10)
	assert.Empty(t, m.open)

	for _, a := range trader.Holdings() {
		assert.Equal(t, 100.0, a.BoughtAt.Price)
	}
}

func TestBuyBelowMarketExpires(t *testing.T) {
	m := newTestMarketplace(constSeries(DefaultOrderTTL+2, 100), domain.FreeCalculator{})

	trader := NewTrader("hopeful", 10000, testAsset(), buyOnce(10, 50), nil, testRand())
	m.Subscribe(trader)

	m.MakeTick()
	require.Equal(t, 9500.0, trader.Cash())

	// The price never reaches the limit; the order ages out after its ttl
	// and the reservation comes back in full.
	for i := 0; i < DefaultOrderTTL; i++ {
		m.MakeTick()
	}

	assert.Equal(t, 10000.0, trader.Cash())
	assert.Empty(t, trader.Holdings())
	assert.Empty(t, m.open)
}

func TestRoundTripRealizesProfit(t *testing.T) {
	// Flat at 100 long enough to buy, then a jump to 110 to settle the sell.
	series := constSeries(6, 100)
	for i := len(series) - 3; i < len(series); i++ {
		series[i] = 110
	}
	m := newTestMarketplace(series, domain.FreeCalculator{})

	trader := NewTrader("cycler", 10000, testAsset(), buyOnce(5, 100), sellAllAt(105), testRand())
	m.Subscribe(trader)

	m.MakeTick() // buy placed
	m.MakeTick() // buy settles at 100, sell placed at 105
	m.MakeTick() // price still 100, sell stays open
	m.MakeTick() // price 110, sell settles

	assert.InDelta(t, 50.0, trader.RealizedProfit(), 1e-9)
	assert.InDelta(t, 10050.0, trader.Cash(), 1e-9)
	assert.Empty(t, trader.Holdings())
	assert.Len(t, trader.Completed(), 5)

	for _, tx := range trader.Completed() {
		assert.Equal(t, 100.0, tx.Purchase.Price)
		assert.Equal(t, 110.0, tx.Sale.Price)
	}
}

func TestSellFeeChargedOnPurchaseBasis(t *testing.T) {
	series := constSeries(6, 10000)
	m := newTestMarketplace(series, domain.MiniCourtage())

	trader := NewTrader("payer", 30000, testAsset(), buyOnce(2, 10000), sellAllAt(9000), testRand())
	m.Subscribe(trader)

	m.MakeTick() // buy placed
	m.MakeTick() // buy settles, fee max(1, 0.25% of 20000) = 50; sell placed
	m.MakeTick() // sell settles at 10000, fee on basis 20000 = 50

	assert.InDelta(t, 100.0, trader.Fees(), 1e-9)
	// realized = (10000-10000)*2 - 50 sell fee
	assert.InDelta(t, -50.0, trader.RealizedProfit(), 1e-9)
}

func TestConservationWithZeroFees(t *testing.T) {
	// With no fees, free cash plus locked reservations plus the purchase
	// value of every asset, held or consigned, equals the start money plus
	// realized profit at all times.
	sim := market.NewSimulator(testAsset(), 100, testRand(), market.BalancedAlternatives())
	m := NewMarketplace(sim, domain.FreeCalculator{}, domain.NewAssetFactory())
	m.RunWarmup()

	buy, _ := strategy.LookupBuy("LeaveOldOrBuyAllAffordableAtLastPrice")
	sell, _ := strategy.LookupSell("LeaveOldOrSellAllProfitableAtLastPrice")
	trader := NewTrader("conserved", 10000, testAsset(), buy, sell, testRand())
	m.Subscribe(trader)

	for tick := 0; tick < 100; tick++ {
		m.MakeTick()

		total := trader.cash
		for _, o := range trader.buys {
			total += o.Reserved()
		}
		for _, a := range trader.holdings {
			total += a.BoughtAt.Price
		}
		for _, o := range trader.sells {
			for _, a := range o.Consigned() {
				total += a.BoughtAt.Price
			}
		}

		require.InDelta(t, 10000+trader.realized, total, 1e-6, "leak at tick %d", tick)
	}
}

func TestConservationWithCourtageFees(t *testing.T) {
	// With fees in play the books still balance once the fees are added
	// back: free cash plus reservations plus purchase value plus all fees
	// paid equals the start money plus the gross profit of every completed
	// transaction. Sell fees net out of realized profit, buy fees out of
	// the fill refund.
	sim := market.NewSimulator(testAsset(), 100, testRand(), market.BalancedAlternatives())
	m := NewMarketplace(sim, domain.MiniCourtage(), domain.NewAssetFactory())
	m.RunWarmup()

	buy, _ := strategy.LookupBuy("LeaveOldOrBuyAllAffordableAtLastPrice")
	sell, _ := strategy.LookupSell("LeaveOldOrSellAllProfitableAtLastPrice")
	trader := NewTrader("charged", 10000, testAsset(), buy, sell, testRand())
	m.Subscribe(trader)

	for tick := 0; tick < 100; tick++ {
		m.MakeTick()

		total := trader.cash + trader.fees
		for _, o := range trader.buys {
			total += o.Reserved()
		}
		for _, a := range trader.holdings {
			total += a.BoughtAt.Price
		}
		for _, o := range trader.sells {
			for _, a := range o.Consigned() {
				total += a.BoughtAt.Price
			}
		}

		gross := 0.0
		for _, tx := range trader.completed {
			gross += tx.Sale.Price - tx.Purchase.Price
		}

		require.InDelta(t, 10000+gross, total, 1e-6, "leak at tick %d", tick)
	}
	require.Greater(t, trader.fees, 0.0)
}

func TestWarmupAfterStartPanics(t *testing.T) {
	m := newTestMarketplace(constSeries(1, 100), domain.FreeCalculator{})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, domain.ErrWarmupAfterStart))
	}()
	m.RunWarmup()
}

func TestRunRound(t *testing.T) {
	params := RoundParams{
		StartPrice: 100,
		AssetType:  testAsset(),
		Ticks:      50,
		Costs:      domain.FreeCalculator{},
		Assets:     domain.NewAssetFactory(),
		Provider: func(startPrice float64, at domain.AssetType, rng *rand.Rand) market.PriceProvider {
			return market.NewSimulator(at, startPrice, rng, market.BalancedAlternatives())
		},
		Traders: StrategiesFactory{
			StartMoney: 10000,
			AssetType:  testAsset(),
			Buys:       strategy.Buys()[:2],
			Sells:      strategy.Sells()[:2],
		},
		Rng: testRand(),
	}

	result := RunRound(params)

	require.Len(t, result.Scorecards, 4)
	assert.Len(t, result.Path, HistoryTicks+50+1)

	for _, card := range result.Scorecards {
		assert.Equal(t, 10000.0, card.InitialFunds)
		assert.NotEmpty(t, card.Name)
	}
}
