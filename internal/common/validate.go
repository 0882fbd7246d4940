package common

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Custom tags for the engine's enum-like types. Registration only fails
	// on an empty tag or a nil function, so a failure here is a programming
	// error.
	mustRegister(v, "side", func(fl validator.FieldLevel) bool {
		side, ok := fl.Field().Interface().(Side)
		return ok && side.Valid()
	})
	mustRegister(v, "ordertype", func(fl validator.FieldLevel) bool {
		orderType, ok := fl.Field().Interface().(OrderType)
		return ok && orderType.Valid()
	})
	mustRegister(v, "price", func(fl validator.FieldLevel) bool {
		price, ok := fl.Field().Interface().(Price)
		return ok && price != InvalidPrice
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}
