package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that understands cost ledger enums and
// compares decimal amounts numerically.
func NewValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		amount, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := amount.Float64()
		return f
	}, decimal.Decimal{})

	_ = validate.RegisterValidation("cost_category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("cost_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})

	return validate
}

// ValidationError converts validator output into a FieldError carrying the
// sentinel of the first failing field.
func ValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make([]string, 0, len(errs))
	var sentinel error
	for _, fe := range errs {
		fields = append(fields, fe.Field())
		if sentinel == nil {
			sentinel = sentinelFor(fe)
		}
	}
	return &FieldError{Fields: fields, Err: sentinel}
}

func sentinelFor(fe validator.FieldError) error {
	switch fe.Field() {
	case "value":
		return ErrInvalidAmount
	case "category":
		return ErrInvalidCategory
	case "status":
		return ErrInvalidStatus
	case "contract_id":
		return ErrInvalidContract
	default:
		return ErrInvalidRequest
	}
}
