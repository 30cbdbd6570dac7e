package engine

import (
	"bot_arena/internal/domain"
	"bot_arena/internal/infra"
	"bot_arena/internal/market"
)

const (
	// HistoryTicks is how many prices, and how many warm-up ticks, the
	// marketplace provides as context to strategies.
	HistoryTicks = 10

	// DefaultOrderTTL is the time-to-live every admitted order gets.
	DefaultOrderTTL = 10
)

// openOrder ties an active order to the trader that owns it, so
// settlement receipts can be dispatched synchronously.
type openOrder struct {
	order *domain.Order
	owner *Trader
}

// Marketplace owns one price series, the set of outstanding orders and
// the tick clock. Each tick it advances the price, expires and settles
// existing orders against the single clearing price, and then solicits
// new orders from the subscribed traders.
type Marketplace struct {
	provider market.PriceProvider
	costs    domain.CostCalculator
	assets   *domain.AssetFactory

	traders []*Trader
	open    []openOrder
}

// NewMarketplace wires a marketplace over a price provider. The asset
// factory is shared across rounds so ids stay globally unique.
func NewMarketplace(provider market.PriceProvider, costs domain.CostCalculator, assets *domain.AssetFactory) *Marketplace {
	return &Marketplace{provider: provider, costs: costs, assets: assets}
}

// Subscribe adds traders to the per-tick solicitation. Must happen after
// the warm-up and before the first real tick.
func (m *Marketplace) Subscribe(traders ...*Trader) {
	m.traders = append(m.traders, traders...)
}

// RunWarmup ticks the price series HistoryTicks times to seed historical
// context before any trader is active. Calling it after the series has
// advanced is a driver bug.
func (m *Marketplace) RunWarmup() {
	if m.provider.TicksSimulated() != 0 {
		domain.Violation(domain.ErrWarmupAfterStart, "at tick %d", m.provider.TicksSimulated())
	}
	for i := 0; i < HistoryTicks; i++ {
		m.provider.MakeTick()
	}
}

// MakeTick runs one full tick cycle: advance the price, age and settle
// existing orders, then collect new orders from every trader. Existing
// orders are fully processed before anyone is solicited, so a trader
// never sees its own not-yet-submitted order in context.
func (m *Marketplace) MakeTick() {
	m.provider.MakeTick()

	m.handleExistingOrders()

	if len(m.traders) == 0 {
		return
	}

	history := m.provider.LastPrices(HistoryTicks)
	last := history[0]
	tick := m.provider.TicksSimulated()

	for _, trader := range m.traders {
		orders := trader.Solicit(tick, last, history, m.costs, m.cancelFor(trader))
		for _, o := range orders {
			m.open = append(m.open, openOrder{order: o, owner: trader})
			infra.Stats.RecordOrderPlaced()
		}
		if len(orders) > 0 {
			m.assertNoDoubleOffer()
		}
	}
}

// handleExistingOrders ages every open order, cancelling the expired ones,
// then settles whatever the tick's clearing price admits. Settlement is
// all-or-nothing per order; every order sees the same price, so there is
// no priority queue.
func (m *Marketplace) handleExistingOrders() {
	for _, e := range m.open {
		if rc := e.order.Tick(); rc != nil {
			e.owner.ApplyCancel(rc)
			infra.Stats.RecordOrderCancelled()
		}
	}
	m.dropTerminal()

	latest := m.provider.LatestPrice()
	for _, e := range m.open {
		if !e.order.SettlesAt(latest.Price) {
			continue
		}
		var fee float64
		if e.order.Side() == domain.SideBuy {
			fee = m.costs.CostToBuy(latest, e.order.Amount())
		} else {
			fee = m.costs.CostToSell(e.order.Consigned())
		}
		e.owner.ApplyFill(e.order.Fill(m.assets, latest, fee))
		infra.Stats.RecordOrderFilled()
	}
	m.dropTerminal()
}

// cancelFor hands a trader a scoped cancel callback for its own orders:
// the order is cancelled, the receipt applied and the order removed from
// the active set, all synchronously.
func (m *Marketplace) cancelFor(trader *Trader) func(*domain.Order) {
	return func(o *domain.Order) {
		trader.ApplyCancel(o.Cancel())
		infra.Stats.RecordOrderCancelled()
		m.dropTerminal()
	}
}

func (m *Marketplace) dropTerminal() {
	live := m.open[:0]
	for _, e := range m.open {
		if e.order.Live() {
			live = append(live, e)
		}
	}
	m.open = live
}

// assertNoDoubleOffer checks that no asset is consigned to two active
// sell orders. A violation is a programming error in the trader
// bookkeeping, fatal for the round.
func (m *Marketplace) assertNoDoubleOffer() {
	seen := make(map[int64]bool)
	for _, e := range m.open {
		if e.order.Side() != domain.SideSell {
			continue
		}
		for _, a := range e.order.Consigned() {
			if seen[a.ID] {
				domain.Violation(domain.ErrDoubleOffer, "asset %d", a.ID)
			}
			seen[a.ID] = true
		}
	}
}
