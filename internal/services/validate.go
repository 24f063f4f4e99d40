package services

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// validate is the shared struct validator for service inputs. It is safe for
// concurrent use and caches struct metadata after the first call.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(fl.Field().String())
	})
	return v
}
