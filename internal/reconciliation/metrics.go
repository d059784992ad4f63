package reconciliation

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/provision/domain"
)

// DisplayPrecision is the number of decimal places used for rates and money on output.
const DisplayPrecision = 2

var hundred = decimal.NewFromInt(100)

// Percent returns numerator / denominator * 100, or zero when denominator is zero.
func Percent(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator).Mul(hundred)
}

// UtilizationRate is billed / predicted * 100, or zero when nothing was predicted.
func UtilizationRate(predicted, billed decimal.Decimal) decimal.Decimal {
	if !predicted.IsPositive() {
		return decimal.Zero
	}
	return Percent(billed, predicted)
}

type Tier string

const (
	TierGood    Tier = "good"
	TierCaution Tier = "caution"
	TierRisk    Tier = "risk"
)

func (t Tier) Color() string {
	switch t {
	case TierGood:
		return "green"
	case TierCaution:
		return "yellow"
	default:
		return "red"
	}
}

// ClassifyUtilization maps a utilization rate to its display tier.
func ClassifyUtilization(rate decimal.Decimal, thresholds config.UtilizationThresholds) Tier {
	switch {
	case rate.GreaterThanOrEqual(decimal.NewFromFloat(thresholds.Good)):
		return TierGood
	case rate.GreaterThanOrEqual(decimal.NewFromFloat(thresholds.Caution)):
		return TierCaution
	default:
		return TierRisk
	}
}

// TotalIndirectCosts sums glosas, SLA discount and MOE sales. Outros is
// reported on its own and is not part of this total.
func TotalIndirectCosts(p domain.Provision) decimal.Decimal {
	return p.Glosas.Add(p.DescontoSLA).Add(p.VendaMOE)
}

// FringeVariance is executed minus planned fringe; positive means over budget.
func FringeVariance(p domain.Provision) decimal.Decimal {
	return p.FringeExecutado.Sub(p.FringePlanejado)
}

// FringeCost is the benefit cost on top of a base salary at fringeRate percent.
func FringeCost(baseSalary, fringeRate decimal.Decimal) decimal.Decimal {
	return baseSalary.Mul(fringeRate).Div(hundred)
}

func TotalCompensation(baseSalary, fringeRate decimal.Decimal) decimal.Decimal {
	return baseSalary.Add(FringeCost(baseSalary, fringeRate))
}
