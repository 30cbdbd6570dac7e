// Package strategy holds the trading-bot strategy functions and the static
// registry the arena selects them from. Strategies are pure decision
// functions: they read a snapshot of the market and the trader's own state
// and emit order instructions, never touching live orders directly.
package strategy

import (
	"math/rand/v2"
	"sort"

	"bot_arena/internal/domain"
)

// Context is the snapshot a strategy decides on: the current tick, the
// trader's free cash, the last price, the most recent prices in descending
// tick order, the trader's holdings and outstanding orders, and the fee
// schedule in force.
type Context struct {
	Tick      int
	AssetType domain.AssetType
	Cash      float64
	LastPrice float64
	History   []domain.AssetPrice
	Owned     []domain.Asset
	Buys      []*domain.Order
	Sells     []*domain.Order
	Costs     domain.CostCalculator
	Rand      *rand.Rand
}

// BuyOffer instructs the trader to submit one buy order.
type BuyOffer struct {
	Amount int
	Price  float64
}

// SellOffer instructs the trader to consign assets into one sell order.
type SellOffer struct {
	Price  float64
	Assets []domain.Asset
}

// BuyPlan is the full output of a buy strategy for one tick. When
// CancelOutstanding is set the trader cancels its open buy orders, with
// their reserved funds refunded, before submitting the offers.
type BuyPlan struct {
	CancelOutstanding bool
	Offers            []BuyOffer
}

// SellPlan is the sell-side counterpart; cancellation returns the
// consigned assets to the holdings before the offers are built into orders.
type SellPlan struct {
	CancelOutstanding bool
	Offers            []SellOffer
}

// BuyFunc decides buy orders for one solicitation.
type BuyFunc func(ctx *Context) BuyPlan

// SellFunc decides sell orders for one solicitation.
type SellFunc func(ctx *Context) SellPlan

// NamedBuy and NamedSell pair a registry name with its function.
type NamedBuy struct {
	Name string
	Fn   BuyFunc
}

type NamedSell struct {
	Name string
	Fn   SellFunc
}

// Buys returns the registered buy strategies in declaration order.
func Buys() []NamedBuy {
	return []NamedBuy{
		{"BuyRandomAmountAtLastPrice", BuyRandomAmountAtLastPrice},
		{"LeaveOldOrBuyAllAffordableAtLastPrice", LeaveOldOrBuyAllAffordableAtLastPrice},
		{"LeaveOldOrBuyHalfAffordableAtLastPrice", LeaveOldOrBuyHalfAffordableAtLastPrice},
		{"LeaveOldOrBuyAllAffordableAtTwoPercentLess", LeaveOldOrBuyAllAffordableAtTwoPercentLess},
		{"LeaveOldOrBuyDipAt99", LeaveOldOrBuyDipAt99},
		{"LeaveOldOrBuyDipAtLatest", LeaveOldOrBuyDipAtLatest},
		{"LeaveOldOrBuyDipAt101", LeaveOldOrBuyDipAt101},
		{"CancelOldAndBuyAllAffordableAtLastPrice", CancelOldAndBuyAllAffordableAtLastPrice},
		{"CancelOldAndBuyAllAffordableAtTwoPercentLess", CancelOldAndBuyAllAffordableAtTwoPercentLess},
		{"CancelOldAndBuyDipAtLatest", CancelOldAndBuyDipAtLatest},
		{"CancelOldAndBuyLadderSpread", CancelOldAndBuyLadderSpread},
	}
}

// Sells returns the registered sell strategies in declaration order.
func Sells() []NamedSell {
	return []NamedSell{
		{"SellRandomProfitableAtLastPrice", SellRandomProfitableAtLastPrice},
		{"LeaveOldOrSellAllProfitableAtLastPrice", LeaveOldOrSellAllProfitableAtLastPrice},
		{"LeaveOldOrSellHalfProfitableAtLastPrice", LeaveOldOrSellHalfProfitableAtLastPrice},
		{"LeaveOldOrSellAllProfitableAtTwoPercentMore", LeaveOldOrSellAllProfitableAtTwoPercentMore},
		{"LeaveOldOrSellPeakAt99", LeaveOldOrSellPeakAt99},
		{"LeaveOldOrSellPeakAtLatest", LeaveOldOrSellPeakAtLatest},
		{"LeaveOldOrSellPeakAt101", LeaveOldOrSellPeakAt101},
		{"CancelOldAndSellAllProfitableAtLastPrice", CancelOldAndSellAllProfitableAtLastPrice},
		{"CancelOldAndSellAllProfitableAtTwoPercentMore", CancelOldAndSellAllProfitableAtTwoPercentMore},
		{"CancelOldAndSellLadderSpread", CancelOldAndSellLadderSpread},
		{"CancelOldAndSellForLiquidity", CancelOldAndSellForLiquidity},
	}
}

// LookupBuy finds a registered buy strategy by name.
func LookupBuy(name string) (BuyFunc, bool) {
	for _, s := range Buys() {
		if s.Name == name {
			return s.Fn, true
		}
	}
	return nil, false
}

// LookupSell finds a registered sell strategy by name.
func LookupSell(name string) (SellFunc, bool) {
	for _, s := range Sells() {
		if s.Name == name {
			return s.Fn, true
		}
	}
	return nil, false
}

// reservedIn sums the reserved funds of the given orders.
func reservedIn(orders []*domain.Order) float64 {
	sum := 0.0
	for _, o := range orders {
		sum += o.Reserved()
	}
	return sum
}

// consignedIn collects the assets held inside the given sell orders.
func consignedIn(orders []*domain.Order) []domain.Asset {
	var assets []domain.Asset
	for _, o := range orders {
		assets = append(assets, o.Consigned()...)
	}
	return assets
}

// affordableAmount is the largest amount whose limit cost plus worst-case
// fee fits inside cash. The fee at the limit price bounds the fee at any
// admissible clearing price, so a fill can never push cash negative.
func affordableAmount(cash, price float64, t domain.AssetType, costs domain.CostCalculator) int {
	if price <= 0 {
		return 0
	}
	amount := int(cash / price)
	at := domain.AssetPrice{Asset: t, Price: price}
	for amount > 0 && price*float64(amount)+costs.CostToBuy(at, amount) > cash {
		amount--
	}
	return amount
}

// fallingStreak counts how many consecutive steps back from the newest
// price were non-rising. History is newest first.
func fallingStreak(history []domain.AssetPrice) int {
	n := 0
	for i := 1; i < len(history); i++ {
		if history[i].Price < history[i-1].Price {
			break
		}
		n++
	}
	return n
}

// risingStreak is the mirror image: consecutive non-falling steps.
func risingStreak(history []domain.AssetPrice) int {
	n := 0
	for i := 1; i < len(history); i++ {
		if history[i].Price > history[i-1].Price {
			break
		}
		n++
	}
	return n
}

// sortedByPurchase returns a copy of assets ordered by purchase price,
// cheapest first.
func sortedByPurchase(assets []domain.Asset) []domain.Asset {
	out := make([]domain.Asset, len(assets))
	copy(out, assets)
	sort.Slice(out, func(i, j int) bool {
		return out[i].BoughtAt.Price < out[j].BoughtAt.Price
	})
	return out
}
