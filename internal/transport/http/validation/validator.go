package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var (
	cpfPattern       = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$|^\d{11}$`)
	telephonePattern = regexp.MustCompile(`^\+\d{2}\(\d{2}\)\d{4,5}-\d{4}$`)
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the storefront rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("telephone", func(fl validator.FieldLevel) bool {
		return telephonePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate checks i and reports field failures as a bad request.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return errorbank.BadRequest("Invalid "+fieldErrs[0].Field(), errorbank.WithDetails(details))
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
