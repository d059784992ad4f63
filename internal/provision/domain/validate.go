package domain

import "github.com/shopspring/decimal"

const amountPrecision = 2

// ValidateAmounts rejects negative amounts and amounts finer than cents.
func ValidateAmounts(p Provision) error {
	var fields []string
	for _, amount := range p.Amounts() {
		if !validAmount(amount.Value) {
			fields = append(fields, amount.Field)
		}
	}
	if len(fields) > 0 {
		return &FieldError{Fields: fields, Err: ErrInvalidAmount}
	}
	return nil
}

func validAmount(v decimal.Decimal) bool {
	if v.IsNegative() {
		return false
	}
	return v.Equal(v.Round(amountPrecision))
}

// ValidatePeriod checks the month/year part of the period key.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return &FieldError{Fields: []string{"month"}, Err: ErrInvalidPeriod}
	}
	if year < 1000 || year > 9999 {
		return &FieldError{Fields: []string{"year"}, Err: ErrInvalidPeriod}
	}
	return nil
}
