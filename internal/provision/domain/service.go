package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	ContractID      snowflake.ID
	ContractName    string
	Description     string
	Month           int
	Year            int
	PredictedAmount decimal.Decimal
	BilledAmount    decimal.Decimal
	ReceivedAmount  decimal.Decimal
	Status          Status
	DueDate         *time.Time
	Glosas          decimal.Decimal
	DescontoSLA     decimal.Decimal
	VendaMOE        decimal.Decimal
	Outros          decimal.Decimal
	Efetivo         int
	FringePlanejado decimal.Decimal
	FringeExecutado decimal.Decimal
}

// UpdateRequest carries a partial update; nil fields are left untouched.
// The period key and the predicted amount are fixed at creation.
type UpdateRequest struct {
	Description     *string
	BilledAmount    *decimal.Decimal
	ReceivedAmount  *decimal.Decimal
	Status          *Status
	DueDate         *time.Time
	Glosas          *decimal.Decimal
	DescontoSLA     *decimal.Decimal
	VendaMOE        *decimal.Decimal
	Outros          *decimal.Decimal
	Efetivo         *int
	FringePlanejado *decimal.Decimal
	FringeExecutado *decimal.Decimal
}

// Apply merges the request into a copy of p and returns the changed field names.
func (r UpdateRequest) Apply(p Provision) (Provision, []string) {
	var changed []string
	setAmount := func(field string, dst *decimal.Decimal, src *decimal.Decimal) {
		if src == nil || dst.Equal(*src) {
			return
		}
		*dst = *src
		changed = append(changed, field)
	}

	if r.Description != nil && strings.TrimSpace(*r.Description) != p.Description {
		p.Description = strings.TrimSpace(*r.Description)
		changed = append(changed, "description")
	}
	setAmount("billed_amount", &p.BilledAmount, r.BilledAmount)
	setAmount("received_amount", &p.ReceivedAmount, r.ReceivedAmount)
	if r.Status != nil && *r.Status != p.Status {
		p.Status = *r.Status
		changed = append(changed, "status")
	}
	if r.DueDate != nil && (p.DueDate == nil || !p.DueDate.Equal(*r.DueDate)) {
		due := *r.DueDate
		p.DueDate = &due
		changed = append(changed, "due_date")
	}
	setAmount("glosas", &p.Glosas, r.Glosas)
	setAmount("desconto_sla", &p.DescontoSLA, r.DescontoSLA)
	setAmount("venda_moe", &p.VendaMOE, r.VendaMOE)
	setAmount("outros", &p.Outros, r.Outros)
	if r.Efetivo != nil && *r.Efetivo != p.Efetivo {
		p.Efetivo = *r.Efetivo
		changed = append(changed, "efetivo")
	}
	setAmount("fringe_planejado", &p.FringePlanejado, r.FringePlanejado)
	setAmount("fringe_executado", &p.FringeExecutado, r.FringeExecutado)

	return p, changed
}

type Service interface {
	Source

	Create(ctx context.Context, req CreateRequest) (Provision, error)
	GetByID(ctx context.Context, id snowflake.ID) (Provision, error)
	GetByPeriod(ctx context.Context, contractID snowflake.ID, month, year int) (Provision, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (Provision, error)
	List(ctx context.Context, filter ListFilter) ([]Provision, error)
}

// Source supplies provision records to read-side consumers. The store is one
// implementation; seed and empty providers are others.
type Source interface {
	ListProvisions(ctx context.Context, filter ListFilter) ([]Provision, error)
}

var (
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrDuplicatePeriod   = errors.New("duplicate_period")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInconsistentState = errors.New("inconsistent_state")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidContract   = errors.New("invalid_contract")
	ErrInvalidHeadcount  = errors.New("invalid_headcount")
	ErrInvalidID         = errors.New("invalid_id")
	ErrConcurrentUpdate  = errors.New("concurrent_update")
	ErrStoreUnavailable  = errors.New("store_unavailable")
)

// FieldError names the request fields responsible for a validation failure.
type FieldError struct {
	Fields []string
	Err    error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + strings.Join(e.Fields, ",")
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
