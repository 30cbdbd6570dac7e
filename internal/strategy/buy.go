package strategy

import "bot_arena/internal/domain"

// Buy strategy library. "LeaveOldOr" variants stay idle while a buy order
// is outstanding; "CancelOldAnd" variants cancel outstanding buys first and
// budget with the refunded reservations included.

// BuyRandomAmountAtLastPrice bids a uniformly random affordable amount at
// the last price.
func BuyRandomAmountAtLastPrice(ctx *Context) BuyPlan {
	max := affordableAmount(ctx.Cash, ctx.LastPrice, ctx.AssetType, ctx.Costs)
	if max <= 0 {
		return BuyPlan{}
	}
	amount := ctx.Rand.IntN(max)
	if amount <= 0 {
		return BuyPlan{}
	}
	return BuyPlan{Offers: []BuyOffer{{Amount: amount, Price: ctx.LastPrice}}}
}

func LeaveOldOrBuyAllAffordableAtLastPrice(ctx *Context) BuyPlan {
	return leaveOldOrBuyAffordable(ctx, 1, 1)
}

func LeaveOldOrBuyHalfAffordableAtLastPrice(ctx *Context) BuyPlan {
	return leaveOldOrBuyAffordable(ctx, 1, 2)
}

func LeaveOldOrBuyAllAffordableAtTwoPercentLess(ctx *Context) BuyPlan {
	return leaveOldOrBuyAffordable(ctx, 0.98, 1)
}

func CancelOldAndBuyAllAffordableAtLastPrice(ctx *Context) BuyPlan {
	return cancelOldAndBuyAffordable(ctx, 1, 1)
}

func CancelOldAndBuyAllAffordableAtTwoPercentLess(ctx *Context) BuyPlan {
	return cancelOldAndBuyAffordable(ctx, 0.98, 1)
}

func leaveOldOrBuyAffordable(ctx *Context, factor float64, divisor int) BuyPlan {
	if len(ctx.Buys) > 0 {
		return BuyPlan{}
	}
	return BuyPlan{Offers: buyAffordable(ctx, ctx.Cash, factor, divisor)}
}

func cancelOldAndBuyAffordable(ctx *Context, factor float64, divisor int) BuyPlan {
	budget := ctx.Cash + reservedIn(ctx.Buys)
	return BuyPlan{
		CancelOutstanding: true,
		Offers:            buyAffordable(ctx, budget, factor, divisor),
	}
}

func buyAffordable(ctx *Context, budget, factor float64, divisor int) []BuyOffer {
	price := ctx.LastPrice * factor
	amount := affordableAmount(budget, price, ctx.AssetType, ctx.Costs) / divisor
	if amount <= 0 {
		return nil
	}
	return []BuyOffer{{Amount: amount, Price: price}}
}

func LeaveOldOrBuyDipAt99(ctx *Context) BuyPlan { return leaveOldOrBuyDip(ctx, 0.99) }

func LeaveOldOrBuyDipAtLatest(ctx *Context) BuyPlan { return leaveOldOrBuyDip(ctx, 1) }

func LeaveOldOrBuyDipAt101(ctx *Context) BuyPlan { return leaveOldOrBuyDip(ctx, 1.01) }

func CancelOldAndBuyDipAtLatest(ctx *Context) BuyPlan {
	budget := ctx.Cash + reservedIn(ctx.Buys)
	return BuyPlan{CancelOutstanding: true, Offers: buyDip(ctx, budget, 1)}
}

func leaveOldOrBuyDip(ctx *Context, factor float64) BuyPlan {
	if len(ctx.Buys) > 0 {
		return BuyPlan{}
	}
	return BuyPlan{Offers: buyDip(ctx, ctx.Cash, factor)}
}

// buyDip weights the bid by how long the price has been falling: a streak
// covering the full history buys 100% of what the budget affords.
func buyDip(ctx *Context, budget, factor float64) []BuyOffer {
	price := ctx.LastPrice * factor
	max := affordableAmount(budget, price, ctx.AssetType, ctx.Costs)
	amount := fallingStreak(ctx.History) * max / 10
	if amount <= 0 {
		return nil
	}
	return []BuyOffer{{Amount: amount, Price: price}}
}

// CancelOldAndBuyLadderSpread cancels outstanding buys and spreads the
// budget across six price rungs from 3% below to 4% above the last price.
func CancelOldAndBuyLadderSpread(ctx *Context) BuyPlan {
	budget := ctx.Cash + reservedIn(ctx.Buys)

	const rungs = 6
	price := ctx.LastPrice * 0.97
	maxPrice := ctx.LastPrice * 1.04
	step := (maxPrice - price) / rungs

	perRung := int(budget / maxPrice / rungs)

	var offers []BuyOffer
	for i := 0; i < rungs; i++ {
		amount := perRung
		if limit := affordableAmount(budget, price, ctx.AssetType, ctx.Costs); amount > limit {
			amount = limit
		}
		if amount > 0 {
			offers = append(offers, BuyOffer{Amount: amount, Price: price})
			at := domain.AssetPrice{Asset: ctx.AssetType, Price: price}
			budget -= price*float64(amount) + ctx.Costs.CostToBuy(at, amount)
		}
		price += step
	}

	if amount := affordableAmount(budget, price, ctx.AssetType, ctx.Costs); amount > 0 {
		offers = append(offers, BuyOffer{Amount: amount, Price: price})
	}

	return BuyPlan{CancelOutstanding: true, Offers: offers}
}
