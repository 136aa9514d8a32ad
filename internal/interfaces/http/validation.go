package http

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// registerValidations teaches the binding validator to treat decimal.Decimal
// as its numeric value, so rules like required and gt apply to the quantity
// instead of the struct internals.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			value, _ := d.Float64()
			return value
		}
		return nil
	}, decimal.Decimal{})
}
