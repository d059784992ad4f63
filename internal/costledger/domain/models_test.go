package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusProgression(t *testing.T) {
	assert.True(t, StatusPendente.CanTransition(StatusAprovado))
	assert.True(t, StatusPendente.CanTransition(StatusProcessando))
	assert.False(t, StatusPendente.CanTransition(StatusPago))
	assert.True(t, StatusAprovado.CanTransition(StatusPago))
	assert.True(t, StatusProcessando.CanTransition(StatusPago))
	assert.False(t, StatusProcessando.CanTransition(StatusPendente))
	for _, next := range []Status{StatusPendente, StatusAprovado, StatusProcessando} {
		assert.False(t, StatusPago.CanTransition(next))
	}
	assert.False(t, Status("cancelado").Valid())
}

func TestBreakdownEmitsEveryCategory(t *testing.T) {
	rows := Breakdown([]Entry{
		{Category: CategoryEPI, Value: decimal.RequireFromString("120.50")},
		{Category: CategoryEPI, Value: decimal.RequireFromString("79.50")},
		{Category: CategoryFrete, Value: decimal.RequireFromString("300")},
		{Category: "desconhecida", Value: decimal.RequireFromString("1")},
	})

	require.Len(t, rows, len(Categories))
	for i, row := range rows {
		assert.Equal(t, Categories[i], row.Category)
	}
	assert.True(t, rows[2].Total.Equal(decimal.RequireFromString("200")))
	assert.Equal(t, 2, rows[2].Count)
	assert.True(t, rows[7].Total.Equal(decimal.RequireFromString("300")))
	assert.True(t, rows[0].Total.IsZero())
}

func TestValidatorMapsFields(t *testing.T) {
	validate := NewValidator()

	valid := CreateRequest{
		Date:       time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		Category:   CategoryInsumos,
		ContractID: 10,
		Value:      decimal.RequireFromString("99.90"),
	}
	require.NoError(t, validate.Struct(valid))

	req := valid
	req.Value = decimal.Zero
	err := ValidationError(validate.Struct(req))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, []string{"value"}, fieldErr.Fields)

	req = valid
	req.Category = "viagem"
	assert.ErrorIs(t, ValidationError(validate.Struct(req)), ErrInvalidCategory)

	req = valid
	req.Status = "estornado"
	assert.ErrorIs(t, ValidationError(validate.Struct(req)), ErrInvalidStatus)

	req = valid
	req.ContractID = 0
	assert.ErrorIs(t, ValidationError(validate.Struct(req)), ErrInvalidContract)

	req = valid
	req.Date = time.Time{}
	assert.ErrorIs(t, ValidationError(validate.Struct(req)), ErrInvalidRequest)
}
