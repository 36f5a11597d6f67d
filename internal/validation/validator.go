package validation

import (
	"reflect"
	"sync"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	defaultOnce      sync.Once
	defaultValidator *validatorv10.Validate
)

// New returns a validator that understands decimal amounts, so tags such as
// `gt=0` work on decimal.Decimal fields.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return v
}

// Default returns a process-wide validator. Validate instances cache struct
// metadata, so sharing one is cheaper than building one per call.
func Default() *validatorv10.Validate {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
