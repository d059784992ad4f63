package export

import (
	"sort"
	"strconv"

	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
)

type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Columns is the fixed export layout. Appending is fine; reordering breaks
// consumers that read exports by position.
var Columns = []Column{
	{Key: "contract_id", Header: "ID Contrato"},
	{Key: "contract_name", Header: "Contrato"},
	{Key: "period", Header: "Competência"},
	{Key: "status", Header: "Status"},
	{Key: "predicted_amount", Header: "Previsto"},
	{Key: "billed_amount", Header: "Faturado"},
	{Key: "received_amount", Header: "Recebido"},
	{Key: "utilization_rate", Header: "Utilização"},
	{Key: "utilization_tier", Header: "Faixa"},
	{Key: "glosas", Header: "Glosas"},
	{Key: "desconto_sla", Header: "Desconto SLA"},
	{Key: "venda_moe", Header: "Venda MOE"},
	{Key: "outros", Header: "Outros"},
	{Key: "total_indirect_costs", Header: "Custos Indiretos"},
	{Key: "efetivo", Header: "Efetivo"},
	{Key: "fringe_planejado", Header: "Encargos Planejados"},
	{Key: "fringe_executado", Header: "Encargos Executados"},
	{Key: "fringe_variance", Header: "Variação Encargos"},
	{Key: "due_date", Header: "Vencimento"},
	{Key: "description", Header: "Descrição"},
}

type Table struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}

// Project flattens records into export rows ordered by period, contract and id.
func Project(records []provisiondomain.Provision, engine *reconciliation.Engine, money MoneyFormatter) Table {
	sorted := make([]provisiondomain.Provision, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.ContractName != b.ContractName {
			return a.ContractName < b.ContractName
		}
		return a.ID < b.ID
	})

	rows := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		rows = append(rows, projectRow(p, engine.Derive(p), money))
	}
	return Table{Columns: Columns, Rows: rows}
}

func projectRow(p provisiondomain.Provision, derived reconciliation.Derived, money MoneyFormatter) []string {
	dueDate := ""
	if p.DueDate != nil {
		dueDate = p.DueDate.Format("02/01/2006")
	}
	return []string{
		p.ContractID.String(),
		p.ContractName,
		period(p.Month, p.Year),
		string(p.Status),
		money.Money(p.PredictedAmount),
		money.Money(p.BilledAmount),
		money.Money(p.ReceivedAmount),
		money.Percent(derived.UtilizationRate),
		string(derived.UtilizationTier),
		money.Money(p.Glosas),
		money.Money(p.DescontoSLA),
		money.Money(p.VendaMOE),
		money.Money(p.Outros),
		money.Money(derived.TotalIndirectCosts),
		strconv.Itoa(p.Efetivo),
		money.Money(p.FringePlanejado),
		money.Money(p.FringeExecutado),
		money.Money(derived.FringeVariance),
		dueDate,
		p.Description,
	}
}

func period(month, year int) string {
	m := strconv.Itoa(month)
	if month < 10 {
		m = "0" + m
	}
	return m + "/" + strconv.Itoa(year)
}
