package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kabasele/shule/core"
)

var (
	// custom validation tags & texts
	roleTag  = "userrole"
	roleText = "invalid role"

	yearTag  = "yearlevel"
	yearText = "invalid year level"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(yearTag, yearValidation)
	core.RegisterCustomTranslation(validate, translator, yearTag, yearText)
}

// roleValidation only allows values from the closed role set.
func roleValidation(fl validator.FieldLevel) bool {
	return contains(AllRoles, fl.Field().String())
}

// yearValidation only allows values from the closed year-level set.
func yearValidation(fl validator.FieldLevel) bool {
	return contains(AllYears, fl.Field().String())
}

func contains(set []string, val string) bool {
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}
