package validate

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	if err := v.RegisterValidation("storefront_email", emailRule); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("account_password", passwordRule); err != nil {
		panic(err)
	}
	return v
}

// Credentials is pre-validated before any network call, so obviously bad
// input never reaches the backend.
type Credentials struct {
	Email    string `json:"email" validate:"required,storefront_email"`
	Password string `json:"password" validate:"required,account_password"`
}

// emailRule mirrors the sign-up form's check: something before the "@" and a
// dotted domain after it. Deliberately looser than full RFC validation.
func emailRule(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	local, domain, found := strings.Cut(value, "@")
	if !found {
		return false
	}
	return local != "" && domain != "" && strings.Contains(domain, ".")
}

// passwordRule requires at least 8 characters with both letters and digits.
func passwordRule(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Struct validates any tagged struct and converts failures into a coded
// validation error with per-field details.
func Struct(value any) error {
	if err := validate.Struct(value); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "storefront_email":
		return "must be a valid email address (e.g. name@example.com)"
	case "account_password":
		return "must be at least 8 characters and mix letters and numbers"
	}
	return "is invalid"
}
