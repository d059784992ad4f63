package service

import (
	"context"
	"time"

	aggregationdomain "github.com/smallbiznis/provisora/internal/aggregation/domain"
	"github.com/smallbiznis/provisora/internal/clock"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/filter"
	"github.com/smallbiznis/provisora/internal/observability/metrics"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Source  provisiondomain.Source
	Costs   costledgerdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	source  provisiondomain.Source
	costs   costledgerdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) aggregationdomain.Service {
	return &Service{
		log:     p.Log.Named("aggregation.service"),
		clock:   p.Clock,
		source:  p.Source,
		costs:   p.Costs,
		metrics: p.Metrics,
	}
}

func (s *Service) Aggregates(ctx context.Context, f provisiondomain.ListFilter) (aggregationdomain.Summary, error) {
	defer s.metrics.ObserveAggregation("aggregates", time.Now())

	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return aggregationdomain.Summary{}, err
	}
	return Summarize(records, s.seriesYear(f)), nil
}

func (s *Service) ContractVariance(ctx context.Context, f provisiondomain.ListFilter) (aggregationdomain.VarianceReport, error) {
	defer s.metrics.ObserveAggregation("variance", time.Now())

	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return aggregationdomain.VarianceReport{}, err
	}
	return ContractVariance(records), nil
}

func (s *Service) Monthly(ctx context.Context, f provisiondomain.ListFilter) (aggregationdomain.MonthlySeries, error) {
	defer s.metrics.ObserveAggregation("monthly", time.Now())

	year := s.seriesYear(f)
	f.Year = filter.Some(year)
	f.Month = filter.None[int]()

	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return aggregationdomain.MonthlySeries{}, err
	}
	return Monthly(records, year), nil
}

func (s *Service) Deductions(ctx context.Context, f provisiondomain.ListFilter) (aggregationdomain.Deductions, error) {
	defer s.metrics.ObserveAggregation("deductions", time.Now())

	records, err := s.source.ListProvisions(ctx, f)
	if err != nil {
		return aggregationdomain.Deductions{}, err
	}
	return SumDeductions(records), nil
}

func (s *Service) CostBreakdown(ctx context.Context, f costledgerdomain.ListFilter) (aggregationdomain.CostBreakdown, error) {
	defer s.metrics.ObserveAggregation("cost_breakdown", time.Now())

	rows, err := s.costs.CategoryBreakdown(ctx, f)
	if err != nil {
		return aggregationdomain.CostBreakdown{}, err
	}
	return SumBreakdown(rows), nil
}

func (s *Service) seriesYear(f provisiondomain.ListFilter) int {
	if year, ok := f.Year.Get(); ok {
		return year
	}
	return s.clock.Now().UTC().Year()
}
