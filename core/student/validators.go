package student

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	nationalIDTag   = "nationalid"
	nationalIDText  = "national id must be 3 to 20 letters, digits or dashes"
	nationalIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,19}$`)
)

// InitValidators registers the student validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(nationalIDTag, nationalIDValidation)
	core.RegisterCustomTranslation(validate, translator, nationalIDTag, nationalIDText)
}

func nationalIDValidation(fl validator.FieldLevel) bool {
	if nid, ok := fl.Field().Interface().(string); ok {
		return nationalIDRegex.MatchString(nid)
	}
	return false
}
