package services

import (
	"errors"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	return v
}

// isStrongPassword requires at least 6 characters with a lowercase letter,
// an uppercase letter, a digit and a character that is none of those.
func isStrongPassword(p string) bool {
	if len([]rune(p)) < 6 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// validationMessage maps the first failed rule of a struct to a client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return common.MsgDataRecheck
	}
	switch verrs[0].Tag() {
	case "password":
		return common.MsgPasswordError
	case "eqfield":
		return common.MsgPasswordMismatch
	case "email":
		return common.MsgInvalidEmail
	default:
		return common.MsgDataRecheck
	}
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return badRequest(validationMessage(err))
	}
	return nil
}
