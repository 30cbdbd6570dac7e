package engine

import (
	"math/rand/v2"
	"slices"

	"bot_arena/internal/domain"
	"bot_arena/internal/strategy"
)

// Trader is a market participant wrapping one buy strategy and one sell
// strategy. It tracks cash, holdings and outstanding orders, and applies
// settlement receipts delivered synchronously by the marketplace.
//
// Bookkeeping rules: sell offers move assets out of the holdings the
// moment the order is built, so an asset can never sit in two places;
// buy offers lock their reservation immediately, and asking for more than
// the free cash is a strategy bug that fails the round.
type Trader struct {
	name      string
	assetType domain.AssetType

	cash       float64
	startMoney float64
	holdings   []domain.Asset
	buys       []*domain.Order
	sells      []*domain.Order
	completed  []domain.CompletedTransaction

	realized     float64
	fees         float64
	lastObserved float64

	buyFn  strategy.BuyFunc
	sellFn strategy.SellFunc
	rng    *rand.Rand

	closed bool
}

// NewTrader creates a trader with its starting cash. Either strategy may
// be nil, in which case that side never submits orders.
func NewTrader(name string, startMoney float64, t domain.AssetType, buy strategy.BuyFunc, sell strategy.SellFunc, rng *rand.Rand) *Trader {
	return &Trader{
		name:       name,
		assetType:  t,
		cash:       startMoney,
		startMoney: startMoney,
		buyFn:      buy,
		sellFn:     sell,
		rng:        rng,
	}
}

func (t *Trader) Name() string            { return t.name }
func (t *Trader) Cash() float64           { return t.cash }
func (t *Trader) StartMoney() float64     { return t.startMoney }
func (t *Trader) RealizedProfit() float64 { return t.realized }
func (t *Trader) Fees() float64           { return t.fees }

// Holdings returns the trader's owned assets, excluding assets consigned
// to outstanding sell orders. Callers must not mutate the slice.
func (t *Trader) Holdings() []domain.Asset { return t.holdings }

// Completed returns the log of finished buy/sell pairs.
func (t *Trader) Completed() []domain.CompletedTransaction { return t.completed }

// TotalAssets is the mark-to-market net worth at the last observed price:
// free cash plus buy reservations plus every asset, held or consigned,
// valued at that price.
func (t *Trader) TotalAssets() float64 {
	total := t.cash
	for _, o := range t.buys {
		total += o.Reserved()
	}
	positions := len(t.holdings)
	for _, o := range t.sells {
		positions += len(o.Consigned())
	}
	return total + float64(positions)*t.lastObserved
}

// Scorecard snapshots the trader's performance.
func (t *Trader) Scorecard() domain.Scorecard {
	return domain.Scorecard{
		Name:           t.name,
		InitialFunds:   t.startMoney,
		RealizedProfit: t.realized,
		RelativeProfit: t.realized / t.startMoney,
		TotalAssets:    t.TotalAssets(),
		Fees:           t.fees,
		Transactions:   len(t.completed),
	}
}

// Solicit asks both strategies for instructions and turns them into new
// orders. Sell orders are built first so offered assets leave the holdings
// before the buy side sees them. The cancel callback lets a plan cancel
// the trader's outstanding orders through the marketplace, with the
// refunds applied before the new offers are priced.
func (t *Trader) Solicit(tick int, last domain.AssetPrice, history []domain.AssetPrice, costs domain.CostCalculator, cancel func(*domain.Order)) []*domain.Order {
	t.lastObserved = last.Price

	var out []*domain.Order

	if t.sellFn != nil {
		plan := t.sellFn(t.context(tick, history, costs))
		if plan.CancelOutstanding {
			for _, o := range slices.Clone(t.sells) {
				cancel(o)
			}
		}
		for _, offer := range plan.Offers {
			if len(offer.Assets) == 0 {
				continue
			}
			t.takeFromHoldings(offer.Assets)
			order := domain.NewSellOrder(offer.Assets, DefaultOrderTTL, offer.Price)
			t.sells = append(t.sells, order)
			out = append(out, order)
		}
	}

	if t.buyFn != nil {
		plan := t.buyFn(t.context(tick, history, costs))
		if plan.CancelOutstanding {
			for _, o := range slices.Clone(t.buys) {
				cancel(o)
			}
		}
		for _, offer := range plan.Offers {
			if offer.Amount <= 0 {
				continue
			}
			order := domain.NewBuyOrder(t.assetType, DefaultOrderTTL, offer.Price, offer.Amount)
			t.cash -= order.Reserved()
			if t.cash < 0 {
				domain.Violation(domain.ErrNegativeCash, "%s reserved %.2f beyond available cash", t.name, order.Reserved())
			}
			t.buys = append(t.buys, order)
			out = append(out, order)
		}
	}

	return out
}

// context snapshots the trader state for a strategy call. Slices are
// copied so a strategy cannot reach into live bookkeeping.
func (t *Trader) context(tick int, history []domain.AssetPrice, costs domain.CostCalculator) *strategy.Context {
	return &strategy.Context{
		Tick:      tick,
		AssetType: t.assetType,
		Cash:      t.cash,
		LastPrice: t.lastObserved,
		History:   history,
		Owned:     slices.Clone(t.holdings),
		Buys:      slices.Clone(t.buys),
		Sells:     slices.Clone(t.sells),
		Costs:     costs,
		Rand:      t.rng,
	}
}

// ApplyFill settles a receipt for one of the trader's own orders: buys
// deliver the minted assets, sells realize profit against the assets'
// purchase prices and record the completed transactions.
func (t *Trader) ApplyFill(r *domain.FillReceipt) {
	if t.closed {
		domain.Violation(domain.ErrTraderClosed, "fill for %s", t.name)
	}

	switch r.Order.Side() {
	case domain.SideBuy:
		t.holdings = append(t.holdings, r.Assets...)
		t.buys = removeOrder(t.buys, r.Order)
	case domain.SideSell:
		for _, a := range r.Assets {
			t.realized += r.At.Price - a.BoughtAt.Price
			t.completed = append(t.completed, domain.CompletedTransaction{
				Asset:    a,
				Purchase: a.BoughtAt,
				Sale:     r.At,
			})
		}
		t.realized -= r.Fee
		t.sells = removeOrder(t.sells, r.Order)
	}

	t.cash += r.Returned
	t.fees += r.Fee
	if t.cash < 0 {
		domain.Violation(domain.ErrNegativeCash, "%s after fill at %.2f", t.name, r.At.Price)
	}
}

// ApplyCancel returns what a cancelled order held: reserved cash for buys,
// consigned assets for sells.
func (t *Trader) ApplyCancel(r *domain.CancelReceipt) {
	if t.closed {
		domain.Violation(domain.ErrTraderClosed, "cancel for %s", t.name)
	}

	switch r.Order.Side() {
	case domain.SideBuy:
		t.buys = removeOrder(t.buys, r.Order)
	case domain.SideSell:
		t.holdings = append(t.holdings, r.Assets...)
		t.sells = removeOrder(t.sells, r.Order)
	}

	t.cash += r.Returned
}

// Close releases the trader at round end. Receipts arriving after Close
// are a driver bug.
func (t *Trader) Close() {
	t.closed = true
	t.buys = nil
	t.sells = nil
}

// takeFromHoldings removes the offered assets from the holdings. Offering
// an asset the trader does not hold means it is already consigned
// elsewhere, which is exactly the double-offer case.
func (t *Trader) takeFromHoldings(assets []domain.Asset) {
	for _, a := range assets {
		idx := slices.IndexFunc(t.holdings, func(h domain.Asset) bool { return h.ID == a.ID })
		if idx < 0 {
			domain.Violation(domain.ErrDoubleOffer, "%s offered asset %d it does not hold", t.name, a.ID)
		}
		t.holdings = slices.Delete(t.holdings, idx, idx+1)
	}
}

func removeOrder(orders []*domain.Order, o *domain.Order) []*domain.Order {
	idx := slices.Index(orders, o)
	if idx < 0 {
		return orders
	}
	return slices.Delete(orders, idx, idx+1)
}
