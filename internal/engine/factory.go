package engine

import (
	"fmt"
	"math/rand/v2"

	"bot_arena/internal/domain"
	"bot_arena/internal/strategy"
)

// TraderFactory creates the trader line-up for one round. Count must
// equal the number of traders Create returns, in a stable order, so
// scorecards from different rounds line up per bot.
type TraderFactory interface {
	Count() int
	Create(rng *rand.Rand) []*Trader
}

// StrategiesFactory builds one trader per (buy, sell) strategy pair, all
// with the same starting cash.
type StrategiesFactory struct {
	StartMoney float64
	AssetType  domain.AssetType
	Buys       []strategy.NamedBuy
	Sells      []strategy.NamedSell
}

func (f StrategiesFactory) Count() int { return len(f.Buys) * len(f.Sells) }

func (f StrategiesFactory) Create(rng *rand.Rand) []*Trader {
	traders := make([]*Trader, 0, f.Count())
	for _, b := range f.Buys {
		for _, s := range f.Sells {
			name := fmt.Sprintf("%s - %s", b.Name, s.Name)
			traders = append(traders, NewTrader(name, f.StartMoney, f.AssetType, b.Fn, s.Fn, rng))
		}
	}
	return traders
}

// StartMoneyFactory builds traders sharing one strategy pair with
// starting cash spread evenly between Min and Max.
type StartMoneyFactory struct {
	Min, Max  float64
	Number    int
	AssetType domain.AssetType
	Buy       strategy.BuyFunc
	Sell      strategy.SellFunc
}

func (f StartMoneyFactory) Count() int { return f.Number }

func (f StartMoneyFactory) Create(rng *rand.Rand) []*Trader {
	if f.Max <= f.Min {
		panic("StartMoneyFactory: max must exceed min")
	}
	if f.Number < 2 {
		panic("StartMoneyFactory: need at least 2 traders")
	}

	step := (f.Max - f.Min) / float64(f.Number-1)
	traders := make([]*Trader, 0, f.Number)
	money := f.Min
	for i := 0; i < f.Number; i++ {
		name := fmt.Sprintf("M%.1f", money)
		traders = append(traders, NewTrader(name, money, f.AssetType, f.Buy, f.Sell, rng))
		money += step
	}
	return traders
}
