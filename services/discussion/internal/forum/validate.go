package forum

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports rejected input field by field, keyed by the JSON
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return true
			}
		}
		return false
	})
	return v
}

// check validates s and converts validator errors into a ValidationError.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field, msg := describe(fe)
		// a confirmation mismatch outranks whatever else was said about the password
		if _, taken := out.Fields[field]; !taken || fe.Tag() == "eqfield" {
			out.Fields[field] = msg
		}
	}
	return out
}

func describe(fe validator.FieldError) (string, string) {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field, "This field is required."
	case "notblank":
		return field, "This field may not be blank."
	case "email":
		return field, "Enter a valid email address."
	case "eqfield":
		// the confirmation mismatch is reported on the password itself
		return "password", "Passwords did not match."
	case "notnumeric":
		return field, "The password is entirely numeric."
	case "min":
		if field == "password" {
			return field, "The password is too short."
		}
		return field, fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return field, fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return field, "Invalid value."
	}
}
