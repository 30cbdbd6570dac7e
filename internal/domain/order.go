package domain

// Side distinguishes buy orders from sell orders.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Order is a limit order with a tick-based time-to-live. It is either live
// or in exactly one of two terminal states, fulfilled or cancelled; once
// terminal it is inert and must leave the marketplace's active set.
//
// Buy orders reserve price*amount of the owner's cash up front. Sell orders
// reserve nothing; they hold the consigned assets instead.
type Order struct {
	side      Side
	assetType AssetType
	ttl       int
	price     float64
	amount    int
	reserved  float64
	consigned []Asset

	fulfilled bool
	cancelled bool
}

// NewBuyOrder creates a live buy order reserving price*amount.
func NewBuyOrder(t AssetType, ttl int, price float64, amount int) *Order {
	o := &Order{
		side:      SideBuy,
		assetType: t,
		ttl:       ttl,
		price:     price,
		amount:    amount,
		reserved:  price * float64(amount),
	}
	o.check()
	return o
}

// NewSellOrder creates a live sell order consigning the given assets.
func NewSellOrder(assets []Asset, ttl int, price float64) *Order {
	if len(assets) == 0 {
		Violation(ErrOrderPrecondition, "sell order without assets")
	}
	o := &Order{
		side:      SideSell,
		assetType: assets[0].Type,
		ttl:       ttl,
		price:     price,
		amount:    len(assets),
		consigned: assets,
	}
	o.check()
	return o
}

func (o *Order) check() {
	if o.ttl <= 0 {
		Violation(ErrOrderPrecondition, "ttl %d", o.ttl)
	}
	if o.price <= 0 {
		Violation(ErrOrderPrecondition, "price %f", o.price)
	}
	if o.amount <= 0 {
		Violation(ErrOrderPrecondition, "amount %d", o.amount)
	}
	if o.reserved < 0 {
		Violation(ErrOrderPrecondition, "reserved %f", o.reserved)
	}
}

func (o *Order) Side() Side      { return o.side }
func (o *Order) Type() AssetType { return o.assetType }
func (o *Order) TTL() int        { return o.ttl }
func (o *Order) Price() float64  { return o.price }
func (o *Order) Amount() int     { return o.amount }

// Reserved is the cash locked by a buy order; zero for sell orders.
func (o *Order) Reserved() float64 { return o.reserved }

// Consigned returns the assets held by a sell order. Callers must not
// mutate the returned slice.
func (o *Order) Consigned() []Asset { return o.consigned }

func (o *Order) Fulfilled() bool { return o.fulfilled }
func (o *Order) Cancelled() bool { return o.cancelled }
func (o *Order) Live() bool      { return !o.fulfilled && !o.cancelled }

// SettlesAt reports whether the order is eligible to settle against the
// given clearing price: at or below the limit for buys, at or above for sells.
func (o *Order) SettlesAt(price float64) bool {
	if o.side == SideBuy {
		return price <= o.price
	}
	return price >= o.price
}

// FillReceipt records a fulfilled order: the clearing price, the funds
// returned to the owner, the fee charged and the assets changing hands.
type FillReceipt struct {
	Order    *Order
	At       AssetPrice
	Returned float64
	Fee      float64
	Assets   []Asset
}

// CancelReceipt records a cancelled order and what it gives back: reserved
// funds for buys, consigned assets for sells.
type CancelReceipt struct {
	Order    *Order
	Returned float64
	Assets   []Asset
}

// Tick ages the order by one tick. When the time-to-live reaches zero the
// order auto-cancels and the cancellation receipt is returned; otherwise
// nil. Terminal orders must not be ticked.
func (o *Order) Tick() *CancelReceipt {
	if !o.Live() {
		Violation(ErrOrderTerminal, "tick on %s order", o.side)
	}

	o.ttl--
	if o.ttl < 0 {
		Violation(ErrOrderTerminal, "ttl below zero, order not cleaned up")
	}
	if o.ttl == 0 {
		return o.Cancel()
	}
	return nil
}

// Cancel moves a live order to the cancelled state and returns the receipt.
func (o *Order) Cancel() *CancelReceipt {
	if !o.Live() {
		Violation(ErrOrderTerminal, "cancel on %s order", o.side)
	}
	o.cancelled = true
	return &CancelReceipt{Order: o, Returned: o.reserved, Assets: o.consigned}
}

// Fill settles a live order against the clearing price. Buy fills mint new
// assets through the factory and return reserved funds net of cost and fee;
// sell fills return proceeds net of fee together with the consigned assets.
func (o *Order) Fill(factory *AssetFactory, at AssetPrice, fee float64) *FillReceipt {
	if !o.Live() {
		Violation(ErrOrderTerminal, "fill on %s order", o.side)
	}
	o.fulfilled = true

	cost := at.Price * float64(o.amount)

	if o.side == SideBuy {
		if cost > o.reserved {
			Violation(ErrReservedShortfall, "cost %.2f reserved %.2f", cost, o.reserved)
		}
		assets := make([]Asset, o.amount)
		for i := range assets {
			assets[i] = factory.Mint(o.assetType, at)
		}
		return &FillReceipt{
			Order:    o,
			At:       at,
			Returned: o.reserved - cost - fee,
			Fee:      fee,
			Assets:   assets,
		}
	}

	return &FillReceipt{
		Order:    o,
		At:       at,
		Returned: cost - fee,
		Fee:      fee,
		Assets:   o.consigned,
	}
}
