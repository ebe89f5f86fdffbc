package module

import (
	"math"
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	coefficientTag  = "coef"
	coefficientText = "coefficient must be a number greater than 0"
)

// InitValidators registers the module validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(coefficientTag, coefficientValidation)
	core.RegisterCustomTranslation(validate, translator, coefficientTag, coefficientText)
}

// ValidCoefficient reports whether coef can weight a module.
func ValidCoefficient(coef float64) bool {
	return coef > 0 && !math.IsInf(coef, 0) && !math.IsNaN(coef)
}

func coefficientValidation(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return ValidCoefficient(fl.Field().Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int() > 0
	}
	return false
}
