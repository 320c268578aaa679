package validation

import (
	"errors"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Placeholder is what an agent fills in for a value it has not collected from the user yet.
const Placeholder = "?"

// New returns a validator with the order-desk tags registered:
//
//	noplaceholder  string must not contain "?"
//	positiveint    string must parse as an integer > 0
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// registration only fails on a malformed tag name
	_ = v.RegisterValidation("noplaceholder", func(fl validatorv10.FieldLevel) bool {
		return !strings.Contains(fl.Field().String(), Placeholder)
	})
	_ = v.RegisterValidation("positiveint", func(fl validatorv10.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n > 0
	})

	return v
}

// FailedFields lists the struct field names that failed validation.
func FailedFields(err error) []string {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fe.StructField())
	}
	return out
}

// OnlyFieldFailed reports whether field is the single failing field in err.
func OnlyFieldFailed(err error, field string) bool {
	fields := FailedFields(err)
	return len(fields) == 1 && fields[0] == field
}
