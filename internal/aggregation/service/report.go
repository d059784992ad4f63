package service

import (
	"sort"

	"github.com/shopspring/decimal"
	aggregationdomain "github.com/smallbiznis/provisora/internal/aggregation/domain"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
)

const monthsPerYear = 12

func round(v decimal.Decimal) decimal.Decimal {
	return v.Round(reconciliation.DisplayPrecision)
}

// Summarize computes the headline metrics of records. The monthly series
// only covers records of the given year.
func Summarize(records []provisiondomain.Provision, year int) aggregationdomain.Summary {
	summary := aggregationdomain.Summary{
		RecordCount:    len(records),
		TotalPredicted: decimal.Zero,
		TotalBilled:    decimal.Zero,
		TotalReceived:  decimal.Zero,
	}

	rates := decimal.Zero
	for _, p := range records {
		summary.TotalPredicted = summary.TotalPredicted.Add(p.PredictedAmount)
		summary.TotalBilled = summary.TotalBilled.Add(p.BilledAmount)
		summary.TotalReceived = summary.TotalReceived.Add(p.ReceivedAmount)
		rates = rates.Add(reconciliation.UtilizationRate(p.PredictedAmount, p.BilledAmount))
	}

	summary.BillingEfficiency = round(reconciliation.Percent(summary.TotalBilled, summary.TotalPredicted))
	summary.CollectionRate = round(reconciliation.Percent(summary.TotalReceived, summary.TotalBilled))
	summary.AvgUtilization = decimal.Zero
	if len(records) > 0 {
		summary.AvgUtilization = round(rates.Div(decimal.NewFromInt(int64(len(records)))))
	}
	summary.StatusDistribution = StatusDistribution(records)
	summary.MonthlySeries = Monthly(records, year)
	return summary
}

// StatusDistribution counts records per status, always listing every status.
func StatusDistribution(records []provisiondomain.Provision) []aggregationdomain.StatusCount {
	counts := make(map[provisiondomain.Status]int, len(provisiondomain.Statuses))
	for _, p := range records {
		counts[p.Status]++
	}
	out := make([]aggregationdomain.StatusCount, 0, len(provisiondomain.Statuses))
	for _, status := range provisiondomain.Statuses {
		out = append(out, aggregationdomain.StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

// Monthly returns twelve points for year; months without records are zero.
func Monthly(records []provisiondomain.Provision, year int) aggregationdomain.MonthlySeries {
	points := make([]aggregationdomain.MonthlyPoint, monthsPerYear)
	for i := range points {
		points[i] = aggregationdomain.MonthlyPoint{
			Month:     i + 1,
			Predicted: decimal.Zero,
			Billed:    decimal.Zero,
			Received:  decimal.Zero,
		}
	}
	for _, p := range records {
		if p.Year != year || p.Month < 1 || p.Month > monthsPerYear {
			continue
		}
		point := &points[p.Month-1]
		point.Predicted = point.Predicted.Add(p.PredictedAmount)
		point.Billed = point.Billed.Add(p.BilledAmount)
		point.Received = point.Received.Add(p.ReceivedAmount)
	}
	return aggregationdomain.MonthlySeries{Year: year, Points: points}
}

// ContractVariance groups records by contract name. Groups appear in
// first-seen order after sorting by name, period and id, so identical
// inputs always render the same table.
func ContractVariance(records []provisiondomain.Provision) aggregationdomain.VarianceReport {
	sorted := make([]provisiondomain.Provision, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ContractName != b.ContractName {
			return a.ContractName < b.ContractName
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.ID < b.ID
	})

	index := map[string]int{}
	rows := []aggregationdomain.VarianceRow{}
	totalPredicted, totalBilled := decimal.Zero, decimal.Zero
	for _, p := range sorted {
		i, ok := index[p.ContractName]
		if !ok {
			i = len(rows)
			index[p.ContractName] = i
			rows = append(rows, aggregationdomain.VarianceRow{
				ContractName: p.ContractName,
				Predicted:    decimal.Zero,
				Billed:       decimal.Zero,
			})
		}
		rows[i].Predicted = rows[i].Predicted.Add(p.PredictedAmount)
		rows[i].Billed = rows[i].Billed.Add(p.BilledAmount)
		totalPredicted = totalPredicted.Add(p.PredictedAmount)
		totalBilled = totalBilled.Add(p.BilledAmount)
	}
	for i := range rows {
		rows[i] = varianceRow(rows[i].ContractName, rows[i].Predicted, rows[i].Billed)
	}

	return aggregationdomain.VarianceReport{
		PerContract: rows,
		GrandTotal:  varianceRow("Total", totalPredicted, totalBilled),
	}
}

func varianceRow(name string, predicted, billed decimal.Decimal) aggregationdomain.VarianceRow {
	difference := billed.Sub(predicted)
	return aggregationdomain.VarianceRow{
		ContractName:    name,
		Predicted:       predicted,
		Billed:          billed,
		Difference:      difference,
		VariancePercent: round(reconciliation.Percent(difference, predicted)),
	}
}

func SumDeductions(records []provisiondomain.Provision) aggregationdomain.Deductions {
	out := aggregationdomain.Deductions{
		Glosas:             decimal.Zero,
		DescontoSLA:        decimal.Zero,
		VendaMOE:           decimal.Zero,
		Outros:             decimal.Zero,
		TotalIndirectCosts: decimal.Zero,
		FringePlanejado:    decimal.Zero,
		FringeExecutado:    decimal.Zero,
		FringeVariance:     decimal.Zero,
	}
	for _, p := range records {
		out.Glosas = out.Glosas.Add(p.Glosas)
		out.DescontoSLA = out.DescontoSLA.Add(p.DescontoSLA)
		out.VendaMOE = out.VendaMOE.Add(p.VendaMOE)
		out.Outros = out.Outros.Add(p.Outros)
		out.TotalIndirectCosts = out.TotalIndirectCosts.Add(reconciliation.TotalIndirectCosts(p))
		out.FringePlanejado = out.FringePlanejado.Add(p.FringePlanejado)
		out.FringeExecutado = out.FringeExecutado.Add(p.FringeExecutado)
		out.FringeVariance = out.FringeVariance.Add(reconciliation.FringeVariance(p))
		out.Efetivo += p.Efetivo
	}
	return out
}

func SumBreakdown(rows []costledgerdomain.CategoryTotal) aggregationdomain.CostBreakdown {
	out := aggregationdomain.CostBreakdown{Categories: rows, Total: decimal.Zero}
	for _, row := range rows {
		out.Total = out.Total.Add(row.Total)
		out.Count += row.Count
	}
	return out
}
