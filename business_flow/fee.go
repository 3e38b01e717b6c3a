package businessflow

import (
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	minorPerUnit = decimal.NewFromInt(utils.MinorUnitsPerMajor)
)

// FeeSplit is a charge divided between the seller and the platform, in minor units
type FeeSplit struct {
	TotalMinor  int64
	FeeMinor    int64
	SellerMinor int64
}

// ComputeSplit converts amount to minor units and takes feePercent of it for the platform.
// Both conversions round half up. The fee never exceeds the total.
func ComputeSplit(amount, feePercent decimal.Decimal) (FeeSplit, error) {
	if feePercent.IsNegative() || feePercent.GreaterThan(hundred) {
		return FeeSplit{}, ErrInvalidFeePercent
	}
	if !amount.IsPositive() {
		return FeeSplit{}, ErrInvalidPrice
	}

	total := amount.Mul(minorPerUnit).Round(0).IntPart()
	if total <= 0 {
		return FeeSplit{}, ErrInvalidPrice
	}

	fee := decimal.NewFromInt(total).Mul(feePercent).Div(hundred).Round(0).IntPart()
	if fee > total {
		fee = total
	}

	return FeeSplit{
		TotalMinor:  total,
		FeeMinor:    fee,
		SellerMinor: total - fee,
	}, nil
}

// FromMinor converts a minor-unit amount back to a two-decimal amount
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Total is the charged amount
func (s FeeSplit) Total() decimal.Decimal {
	return FromMinor(s.TotalMinor)
}

// Fee is the platform's cut
func (s FeeSplit) Fee() decimal.Decimal {
	return FromMinor(s.FeeMinor)
}

// Seller is what the seller receives
func (s FeeSplit) Seller() decimal.Decimal {
	return FromMinor(s.SellerMinor)
}

// Valid reports whether the parts add up to a positive total
func (s FeeSplit) Valid() bool {
	return s.TotalMinor > 0 && s.FeeMinor >= 0 && s.SellerMinor >= 0 && s.FeeMinor+s.SellerMinor == s.TotalMinor
}
