package domain

import "sync"

// AssetType identifies a tradeable instrument. Equality is by name.
type AssetType struct {
	Name string
}

// AssetPrice is the immutable fact that an asset traded at a price on a tick.
type AssetPrice struct {
	Asset AssetType
	Tick  int
	Price float64
}

// Asset is one unit of an instrument with a permanent identity.
// An asset has exactly one owner at any time: a trader's holdings or
// the consignment of a single sell order.
type Asset struct {
	ID       int64
	Type     AssetType
	BoughtAt AssetPrice
}

// AssetFactory mints assets with ids that are unique across every round
// of the process, including rounds running concurrently.
type AssetFactory struct {
	mu   sync.Mutex
	next int64
}

// NewAssetFactory creates a factory whose counter starts at zero.
func NewAssetFactory() *AssetFactory {
	return &AssetFactory{}
}

// Mint issues a new asset. Safe for concurrent use.
func (f *AssetFactory) Mint(t AssetType, boughtAt AssetPrice) Asset {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := Asset{ID: f.next, Type: t, BoughtAt: boughtAt}
	f.next++
	return a
}

// Minted reports how many assets have been issued so far.
func (f *AssetFactory) Minted() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}
