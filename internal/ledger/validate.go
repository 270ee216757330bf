package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks ledger entities before they are submitted.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the decimal rules used by the entity tags.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "nonzero_decimal", func(d decimal.Decimal) bool { return !d.IsZero() })
	mustRegister(v, "positive_decimal", func(d decimal.Decimal) bool { return d.IsPositive() })
	mustRegister(v, "nonnegative_decimal", func(d decimal.Decimal) bool { return !d.IsNegative() })
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, ok func(decimal.Decimal) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		d, isDecimal := fl.Field().Interface().(decimal.Decimal)
		return isDecimal && ok(d)
	})
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Struct validates e and converts failures into a *ValidationError.
func (v *Validator) Struct(e any) error {
	err := v.v.Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "nonzero_decimal":
		return fe.Field() + " must not be zero"
	case "positive_decimal", "gt":
		return fe.Field() + " must be positive"
	case "nonnegative_decimal":
		return fe.Field() + " must not be negative"
	case "datetime":
		return fe.Field() + " must be a date in YYYY-MM-DD form"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "hexcolor":
		return fe.Field() + " must be a hex color"
	}
	return fe.Field() + " is invalid"
}
