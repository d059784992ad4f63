package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/filter"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalTime(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

func parseSnowflakeID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid_snowflake_id")
	}
	return parsed, nil
}

// parseIDFilter treats "", "all" as unrestricted.
func parseIDFilter(value string) (filter.Option[snowflake.ID], error) {
	raw, ok := filter.ParseString(value).Get()
	if !ok {
		return filter.None[snowflake.ID](), nil
	}
	id, err := parseSnowflakeID(raw)
	if err != nil {
		return filter.None[snowflake.ID](), err
	}
	return filter.Some(id), nil
}

type provisionQuery struct {
	ContractID string `form:"contract_id"`
	Month      string `form:"month"`
	Year       string `form:"year"`
	Status     string `form:"status"`
	Search     string `form:"search"`
}

func bindProvisionFilter(c *gin.Context) (provisiondomain.ListFilter, error) {
	var query provisionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return provisiondomain.ListFilter{}, invalidRequestError()
	}

	var f provisiondomain.ListFilter
	var err error
	if f.ContractID, err = parseIDFilter(query.ContractID); err != nil {
		return f, newValidationError("contract_id", "invalid_contract", "invalid contract_id")
	}
	if f.Month, err = filter.ParseInt(query.Month); err != nil {
		return f, newValidationError("month", "invalid_period", "invalid month")
	}
	if f.Year, err = filter.ParseInt(query.Year); err != nil {
		return f, newValidationError("year", "invalid_period", "invalid year")
	}
	if raw, ok := filter.ParseString(query.Status).Get(); ok {
		status := provisiondomain.Status(raw)
		if !status.Valid() {
			return f, newValidationError("status", "invalid_status", "unknown status")
		}
		f.Status = filter.Some(status)
	}
	if search, ok := filter.ParseString(query.Search).Get(); ok {
		f.Search = search
	}
	return f, nil
}

type costEntryQuery struct {
	ContractID string `form:"contract_id"`
	Category   string `form:"category"`
	Status     string `form:"status"`
	Month      string `form:"month"`
	Year       string `form:"year"`
}

func bindCostEntryFilter(c *gin.Context) (costledgerdomain.ListFilter, error) {
	var query costEntryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return costledgerdomain.ListFilter{}, invalidRequestError()
	}

	var f costledgerdomain.ListFilter
	var err error
	if f.ContractID, err = parseIDFilter(query.ContractID); err != nil {
		return f, newValidationError("contract_id", "invalid_contract", "invalid contract_id")
	}
	if raw, ok := filter.ParseString(query.Category).Get(); ok {
		category := costledgerdomain.Category(raw)
		if !category.Valid() {
			return f, newValidationError("category", "invalid_category", "unknown category")
		}
		f.Category = filter.Some(category)
	}
	if raw, ok := filter.ParseString(query.Status).Get(); ok {
		status := costledgerdomain.Status(raw)
		if !status.Valid() {
			return f, newValidationError("status", "invalid_status", "unknown status")
		}
		f.Status = filter.Some(status)
	}
	if f.Month, err = filter.ParseInt(query.Month); err != nil {
		return f, newValidationError("month", "invalid_period", "invalid month")
	}
	if f.Year, err = filter.ParseInt(query.Year); err != nil {
		return f, newValidationError("year", "invalid_period", "invalid year")
	}
	return f, nil
}

// amount accepts a JSON number or numeric string. Malformed input is
// recorded rather than failing the whole body so the field can be reported.
type amount struct {
	Value   decimal.Decimal
	Set     bool
	Invalid bool
}

func (a *amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	a.Set = true
	if err := a.Value.UnmarshalJSON(data); err != nil {
		a.Invalid = true
	}
	return nil
}

func (a amount) OrZero() decimal.Decimal {
	if !a.Set {
		return decimal.Zero
	}
	return a.Value
}

func (a amount) Ptr() *decimal.Decimal {
	if !a.Set {
		return nil
	}
	v := a.Value
	return &v
}

// invalidAmounts collects the names of fields holding malformed amounts.
func invalidAmounts(fields map[string]amount) error {
	var names []string
	for _, name := range amountFieldOrder {
		if a, ok := fields[name]; ok && a.Invalid {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &provisiondomain.FieldError{Fields: names, Err: provisiondomain.ErrInvalidAmount}
}

var amountFieldOrder = []string{
	"predicted_amount",
	"billed_amount",
	"received_amount",
	"glosas",
	"desconto_sla",
	"venda_moe",
	"outros",
	"fringe_planejado",
	"fringe_executado",
}
