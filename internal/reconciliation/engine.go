package reconciliation

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/provision/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation",
	fx.Provide(NewEngine),
)

// Derived holds the read-time metrics of a single provision.
type Derived struct {
	UtilizationRate    decimal.Decimal `json:"utilization_rate"`
	UtilizationTier    Tier            `json:"utilization_tier"`
	TierColor          string          `json:"tier_color"`
	TotalIndirectCosts decimal.Decimal `json:"total_indirect_costs"`
	FringeVariance     decimal.Decimal `json:"fringe_variance"`
}

type Engine struct {
	cfg *config.ReconciliationConfigHolder
}

func NewEngine(cfg *config.ReconciliationConfigHolder) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Thresholds() config.UtilizationThresholds {
	return e.cfg.Get().Utilization
}

func (e *Engine) Classify(rate decimal.Decimal) Tier {
	return ClassifyUtilization(rate, e.Thresholds())
}

// Derive computes the display metrics of p. Rates are rounded for output
// while the tier is decided on the unrounded value.
func (e *Engine) Derive(p domain.Provision) Derived {
	rate := UtilizationRate(p.PredictedAmount, p.BilledAmount)
	tier := e.Classify(rate)
	return Derived{
		UtilizationRate:    rate.Round(DisplayPrecision),
		UtilizationTier:    tier,
		TierColor:          tier.Color(),
		TotalIndirectCosts: TotalIndirectCosts(p),
		FringeVariance:     FringeVariance(p),
	}
}

// ValidateNew checks a record about to be created.
func (e *Engine) ValidateNew(p domain.Provision) error {
	if !p.Status.Valid() {
		return &domain.FieldError{Fields: []string{"status"}, Err: domain.ErrInvalidStatus}
	}
	if err := validateRecord(p); err != nil {
		return err
	}
	if p.Status == domain.StatusNFEmitida && !p.BilledAmount.IsPositive() {
		return &domain.FieldError{Fields: []string{"status", "billed_amount"}, Err: domain.ErrInvalidTransition}
	}
	return validateSettlement(p)
}

// ValidateUpdate checks the merged state next against the stored state current.
func (e *Engine) ValidateUpdate(current, next domain.Provision) error {
	if !next.Status.Valid() {
		return &domain.FieldError{Fields: []string{"status"}, Err: domain.ErrInvalidTransition}
	}
	if err := validateRecord(next); err != nil {
		return err
	}

	if next.Status == domain.StatusNFEmitida && !next.BilledAmount.IsPositive() {
		if current.Status != domain.StatusNFEmitida {
			return &domain.FieldError{Fields: []string{"status", "billed_amount"}, Err: domain.ErrInvalidTransition}
		}
		return &domain.FieldError{Fields: []string{"billed_amount"}, Err: domain.ErrInconsistentState}
	}
	if current.Status == domain.StatusNFEmitida && next.Status != domain.StatusNFEmitida && next.ReceivedAmount.IsPositive() {
		return &domain.FieldError{Fields: []string{"status", "received_amount"}, Err: domain.ErrInconsistentState}
	}
	return validateSettlement(next)
}

func validateRecord(p domain.Provision) error {
	if err := domain.ValidatePeriod(p.Month, p.Year); err != nil {
		return err
	}
	if err := domain.ValidateAmounts(p); err != nil {
		return err
	}
	if p.Efetivo < 0 {
		return &domain.FieldError{Fields: []string{"efetivo"}, Err: domain.ErrInvalidHeadcount}
	}
	return nil
}

// validateSettlement enforces that money is only received on an issued invoice.
func validateSettlement(p domain.Provision) error {
	if p.ReceivedAmount.IsPositive() && p.Status != domain.StatusNFEmitida {
		return &domain.FieldError{Fields: []string{"received_amount", "status"}, Err: domain.ErrInconsistentState}
	}
	return nil
}
