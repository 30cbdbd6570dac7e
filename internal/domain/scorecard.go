package domain

import "fmt"

// CompletedTransaction pairs an asset's purchase with its eventual sale.
type CompletedTransaction struct {
	Asset    Asset
	Purchase AssetPrice
	Sale     AssetPrice
}

// Scorecard is the end-of-round performance snapshot for one trader.
// Immutable once created.
type Scorecard struct {
	Name           string
	InitialFunds   float64
	RealizedProfit float64
	RelativeProfit float64
	TotalAssets    float64
	Fees           float64
	Transactions   int
}

func (s Scorecard) String() string {
	return fmt.Sprintf(
		"%s (start %.2f): realized %.2f (%.2f%%), total %.2f, fees %.2f, %d transactions",
		s.Name, s.InitialFunds, s.RealizedProfit, s.RelativeProfit*100,
		s.TotalAssets, s.Fees, s.Transactions,
	)
}
