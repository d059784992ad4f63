package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/filter"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/internal/workforce/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Cfg  config.Config
	Repo domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	timeout time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("workforce.service"),
		repo:    p.Repo,
		timeout: p.Cfg.StoreTimeout,
	}
}

func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]domain.Employee, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	items, err := s.repo.List(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	employees := make([]domain.Employee, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		employees = append(employees, *item)
	}
	return employees, nil
}

func (s *Service) Compensation(e domain.Employee) domain.Compensation {
	return domain.Compensation{
		EmployeeID:        e.ID,
		BaseSalary:        e.BaseSalary,
		FringeRate:        e.FringeRate,
		FringeCost:        reconciliation.FringeCost(e.BaseSalary, e.FringeRate).Round(reconciliation.DisplayPrecision),
		TotalCompensation: reconciliation.TotalCompensation(e.BaseSalary, e.FringeRate).Round(reconciliation.DisplayPrecision),
	}
}

// FringeSummary totals compensation and extra-hours cost over the active
// employees allocated to contractID.
func (s *Service) FringeSummary(ctx context.Context, contractID snowflake.ID) (domain.FringeSummary, error) {
	if contractID == 0 {
		return domain.FringeSummary{}, domain.ErrInvalidContract
	}

	employees, err := s.List(ctx, domain.ListFilter{ContractID: filter.Some(contractID), ActiveOnly: true})
	if err != nil {
		return domain.FringeSummary{}, err
	}

	summary := domain.FringeSummary{
		ContractID:        contractID,
		BaseSalaryTotal:   decimal.Zero,
		FringeTotal:       decimal.Zero,
		TotalCompensation: decimal.Zero,
		MOECost:           decimal.Zero,
	}
	for _, e := range employees {
		comp := s.Compensation(e)
		summary.Headcount++
		summary.BaseSalaryTotal = summary.BaseSalaryTotal.Add(comp.BaseSalary)
		summary.FringeTotal = summary.FringeTotal.Add(comp.FringeCost)
		summary.TotalCompensation = summary.TotalCompensation.Add(comp.TotalCompensation)
		summary.MOECost = summary.MOECost.Add(e.HoursWorked.Mul(e.HourlyRate))
	}
	summary.MOECost = summary.MOECost.Round(reconciliation.DisplayPrecision)
	return summary, nil
}
