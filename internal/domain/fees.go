package domain

import "github.com/shopspring/decimal"

// CostCalculator is a pluggable fee schedule. Buy fees are a function of
// the clearing price and amount; sell fees are a function of the sold
// assets' original purchase prices. The sell basis intentionally follows
// the purchase price of the assets, not the sale price.
type CostCalculator interface {
	CostToBuy(at AssetPrice, amount int) float64
	CostToSell(assets []Asset) float64
}

// FreeCalculator charges nothing. Useful for baselines and tests.
type FreeCalculator struct{}

func (FreeCalculator) CostToBuy(AssetPrice, int) float64 { return 0 }
func (FreeCalculator) CostToSell([]Asset) float64        { return 0 }

// FlatCalculator charges a fixed amount per settlement regardless of size.
type FlatCalculator struct {
	Amount float64
}

func (c FlatCalculator) CostToBuy(AssetPrice, int) float64 { return c.Amount }
func (c FlatCalculator) CostToSell([]Asset) float64        { return c.Amount }

// CourtageCalculator charges a percentage of the traded value with a
// floor. Fee math runs in exact decimals so the rate tiers round the same
// way a broker's schedule does.
type CourtageCalculator struct {
	rate    decimal.Decimal
	minimum decimal.Decimal
}

// NewCourtage builds a percentage-with-minimum schedule.
func NewCourtage(rate, minimum float64) CourtageCalculator {
	return CourtageCalculator{
		rate:    decimal.NewFromFloat(rate),
		minimum: decimal.NewFromFloat(minimum),
	}
}

// Courtage tiers taken from Avanza's published price list (2023-01-21).
func MiniCourtage() CourtageCalculator   { return NewCourtage(0.0025, 1) }
func SmallCourtage() CourtageCalculator  { return NewCourtage(0.0015, 39) }
func MediumCourtage() CourtageCalculator { return NewCourtage(0.00069, 69) }

func (c CourtageCalculator) CostToBuy(at AssetPrice, amount int) float64 {
	value := decimal.NewFromFloat(at.Price).Mul(decimal.NewFromInt(int64(amount)))
	return decimal.Max(c.minimum, value.Mul(c.rate)).InexactFloat64()
}

func (c CourtageCalculator) CostToSell(assets []Asset) float64 {
	basis := decimal.Zero
	for _, a := range assets {
		basis = basis.Add(decimal.NewFromFloat(a.BoughtAt.Price))
	}
	return decimal.Max(c.minimum, basis.Mul(c.rate)).InexactFloat64()
}
