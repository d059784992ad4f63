package domain

import (
	"context"

	"github.com/shopspring/decimal"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
)

type StatusCount struct {
	Status provisiondomain.Status `json:"status"`
	Count  int                    `json:"count"`
}

type MonthlyPoint struct {
	Month     int             `json:"month"`
	Predicted decimal.Decimal `json:"predicted"`
	Billed    decimal.Decimal `json:"billed"`
	Received  decimal.Decimal `json:"received"`
}

type MonthlySeries struct {
	Year   int            `json:"year"`
	Points []MonthlyPoint `json:"points"`
}

// Summary is the dashboard view of a filtered provision set.
type Summary struct {
	RecordCount        int             `json:"record_count"`
	TotalPredicted     decimal.Decimal `json:"total_predicted"`
	TotalBilled        decimal.Decimal `json:"total_billed"`
	TotalReceived      decimal.Decimal `json:"total_received"`
	BillingEfficiency  decimal.Decimal `json:"billing_efficiency"`
	CollectionRate     decimal.Decimal `json:"collection_rate"`
	AvgUtilization     decimal.Decimal `json:"avg_utilization"`
	StatusDistribution []StatusCount   `json:"status_distribution"`
	MonthlySeries      MonthlySeries   `json:"monthly_series"`
}

type VarianceRow struct {
	ContractName    string          `json:"contract_name"`
	Predicted       decimal.Decimal `json:"predicted"`
	Billed          decimal.Decimal `json:"billed"`
	Difference      decimal.Decimal `json:"difference"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
}

type VarianceReport struct {
	PerContract []VarianceRow `json:"per_contract"`
	GrandTotal  VarianceRow   `json:"grand_total"`
}

// Deductions totals the indirect costs and fringe figures of a provision set.
// Efetivo is the summed headcount of every matching record.
type Deductions struct {
	Glosas             decimal.Decimal `json:"glosas"`
	DescontoSLA        decimal.Decimal `json:"desconto_sla"`
	VendaMOE           decimal.Decimal `json:"venda_moe"`
	Outros             decimal.Decimal `json:"outros"`
	TotalIndirectCosts decimal.Decimal `json:"total_indirect_costs"`
	FringePlanejado    decimal.Decimal `json:"fringe_planejado"`
	FringeExecutado    decimal.Decimal `json:"fringe_executado"`
	FringeVariance     decimal.Decimal `json:"fringe_variance"`
	Efetivo            int             `json:"efetivo"`
}

type CostBreakdown struct {
	Categories []costledgerdomain.CategoryTotal `json:"categories"`
	Total      decimal.Decimal                  `json:"total"`
	Count      int                              `json:"count"`
}

// Service computes reports over the configured provision source. An empty
// record set yields zeroed reports, never an error.
type Service interface {
	Aggregates(ctx context.Context, filter provisiondomain.ListFilter) (Summary, error)
	ContractVariance(ctx context.Context, filter provisiondomain.ListFilter) (VarianceReport, error)
	Monthly(ctx context.Context, filter provisiondomain.ListFilter) (MonthlySeries, error)
	Deductions(ctx context.Context, filter provisiondomain.ListFilter) (Deductions, error)
	CostBreakdown(ctx context.Context, filter costledgerdomain.ListFilter) (CostBreakdown, error)
}
