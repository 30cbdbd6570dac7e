package strategy

import "bot_arena/internal/domain"

// Sell strategy library. "Profitable" means assets whose purchase price
// sits below the intended order price. Cancel variants pull consigned
// assets back from outstanding sell orders into the sellable pool before
// deciding.

// SellRandomProfitableAtLastPrice offers a random number of the cheapest
// holdings, bounded by how many are currently profitable.
func SellRandomProfitableAtLastPrice(ctx *Context) SellPlan {
	profitable := 0
	for _, a := range ctx.Owned {
		if a.BoughtAt.Price < ctx.LastPrice {
			profitable++
		}
	}
	if profitable == 0 {
		return SellPlan{}
	}
	n := ctx.Rand.IntN(profitable)
	if n == 0 {
		return SellPlan{}
	}
	cheapest := sortedByPurchase(ctx.Owned)
	return SellPlan{Offers: []SellOffer{{Price: ctx.LastPrice, Assets: cheapest[:n]}}}
}

func LeaveOldOrSellAllProfitableAtLastPrice(ctx *Context) SellPlan {
	return leaveOldOrSellProfitable(ctx, 1, false)
}

func LeaveOldOrSellHalfProfitableAtLastPrice(ctx *Context) SellPlan {
	return leaveOldOrSellProfitable(ctx, 1, true)
}

func LeaveOldOrSellAllProfitableAtTwoPercentMore(ctx *Context) SellPlan {
	return leaveOldOrSellProfitable(ctx, 1.02, false)
}

func CancelOldAndSellAllProfitableAtLastPrice(ctx *Context) SellPlan {
	pool := append(sortedByPurchase(ctx.Owned), consignedIn(ctx.Sells)...)
	return SellPlan{
		CancelOutstanding: true,
		Offers:            sellProfitable(ctx, pool, 1, false),
	}
}

func CancelOldAndSellAllProfitableAtTwoPercentMore(ctx *Context) SellPlan {
	pool := append(sortedByPurchase(ctx.Owned), consignedIn(ctx.Sells)...)
	return SellPlan{
		CancelOutstanding: true,
		Offers:            sellProfitable(ctx, pool, 1.02, false),
	}
}

func leaveOldOrSellProfitable(ctx *Context, factor float64, half bool) SellPlan {
	if len(ctx.Sells) > 0 {
		return SellPlan{}
	}
	return SellPlan{Offers: sellProfitable(ctx, ctx.Owned, factor, half)}
}

func sellProfitable(ctx *Context, pool []domain.Asset, factor float64, half bool) []SellOffer {
	threshold := ctx.LastPrice * factor

	candidates := make([]domain.Asset, 0, len(pool))
	for _, a := range sortedByPurchase(pool) {
		if a.BoughtAt.Price < threshold {
			candidates = append(candidates, a)
		}
	}

	if half {
		// Half of the whole position, not half of the profitable part.
		if limit := len(pool) / 2; len(candidates) > limit {
			candidates = candidates[:limit]
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return []SellOffer{{Price: threshold, Assets: candidates}}
}

func LeaveOldOrSellPeakAt99(ctx *Context) SellPlan { return leaveOldOrSellPeak(ctx, 0.99) }

func LeaveOldOrSellPeakAtLatest(ctx *Context) SellPlan { return leaveOldOrSellPeak(ctx, 1) }

func LeaveOldOrSellPeakAt101(ctx *Context) SellPlan { return leaveOldOrSellPeak(ctx, 1.01) }

func leaveOldOrSellPeak(ctx *Context, factor float64) SellPlan {
	if len(ctx.Sells) > 0 {
		return SellPlan{}
	}
	return SellPlan{Offers: sellPeak(ctx, ctx.Owned, factor)}
}

// sellPeak weights the offer by how long the price has been rising: a
// streak covering the full history sells everything profitable.
func sellPeak(ctx *Context, pool []domain.Asset, factor float64) []SellOffer {
	price := ctx.LastPrice * factor

	candidates := make([]domain.Asset, 0, len(pool))
	for _, a := range sortedByPurchase(pool) {
		if a.BoughtAt.Price < price {
			candidates = append(candidates, a)
		}
	}
	n := risingStreak(ctx.History) * len(candidates) / 10
	if n <= 0 {
		return nil
	}
	return []SellOffer{{Price: price, Assets: candidates[:n]}}
}

// CancelOldAndSellLadderSpread pulls everything back and spreads the
// profitable assets across six price rungs up to 4% above the last price.
func CancelOldAndSellLadderSpread(ctx *Context) SellPlan {
	pool := append(sortedByPurchase(ctx.Owned), consignedIn(ctx.Sells)...)
	if len(pool) == 0 {
		return SellPlan{CancelOutstanding: true}
	}
	pool = sortedByPurchase(pool)

	minBought := pool[0].BoughtAt.Price
	price := ctx.LastPrice * 0.97
	if minBought > price {
		price = minBought
	}
	maxPrice := ctx.LastPrice * 1.04

	var toSell []domain.Asset
	for _, a := range pool {
		if a.BoughtAt.Price < price {
			toSell = append(toSell, a)
		}
	}
	if len(toSell) == 0 {
		return SellPlan{CancelOutstanding: true}
	}

	const rungs = 6
	perRung := len(toSell) / rungs
	step := (maxPrice - price) / rungs

	var offers []SellOffer
	for i := 0; i < rungs && perRung > 0; i++ {
		offers = append(offers, SellOffer{Price: price, Assets: toSell[:perRung]})
		toSell = toSell[perRung:]
		price += step
	}
	if len(toSell) > 0 {
		offers = append(offers, SellOffer{Price: price, Assets: toSell})
	}

	return SellPlan{CancelOutstanding: true, Offers: offers}
}

// CancelOldAndSellForLiquidity sells just enough of the cheapest holdings
// to bring free cash back over a floor; below 1000 it sells at cost, below
// 2000 at 2% over cost.
func CancelOldAndSellForLiquidity(ctx *Context) SellPlan {
	pool := sortedByPurchase(append(sortedByPurchase(ctx.Owned), consignedIn(ctx.Sells)...))
	if len(pool) == 0 {
		return SellPlan{CancelOutstanding: true}
	}

	var target, factor float64
	switch {
	case ctx.Cash < 1000:
		target, factor = 1000, 1
	case ctx.Cash < 2000:
		target, factor = 2000, 1.02
	default:
		return SellPlan{CancelOutstanding: true}
	}

	price, n := assetsForSum(pool, target, factor)
	if n == 0 {
		return SellPlan{CancelOutstanding: true}
	}
	return SellPlan{
		CancelOutstanding: true,
		Offers:            []SellOffer{{Price: price, Assets: pool[:n]}},
	}
}

// assetsForSum walks the cheapest assets until selling n of them at the
// n-th asset's cost times factor would raise the demanded sum.
func assetsForSum(pool []domain.Asset, demanded, factor float64) (price float64, n int) {
	sum := 0.0
	for n = 1; n <= len(pool); n++ {
		price = pool[n-1].BoughtAt.Price * factor
		sum = float64(n) * price
		if sum >= demanded {
			return price, n
		}
	}
	return price, len(pool)
}
