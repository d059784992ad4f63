package service

import (
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	"github.com/smallbiznis/provisora/internal/provision/domain"
)

func fieldValues(p domain.Provision) map[string]any {
	values := map[string]any{
		"contract_id":   p.ContractID.String(),
		"contract_name": p.ContractName,
		"description":   p.Description,
		"month":         p.Month,
		"year":          p.Year,
		"status":        string(p.Status),
		"efetivo":       p.Efetivo,
	}
	if p.DueDate != nil {
		values["due_date"] = p.DueDate.Format("2006-01-02")
	} else {
		values["due_date"] = nil
	}
	for _, amount := range p.Amounts() {
		values[amount.Field] = amount.Value.StringFixed(2)
	}
	return values
}

func snapshot(p domain.Provision) map[string]any {
	return fieldValues(p)
}

func diff(before, after domain.Provision, changed []string) map[string]any {
	from := fieldValues(before)
	to := fieldValues(after)
	out := make(map[string]any, len(changed))
	for _, field := range changed {
		out[field] = auditdomain.Change{From: from[field], To: to[field]}
	}
	return out
}
