package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	v *validator.Validate
)

func init() {
	v = validator.New()
}

// Validate checks struct i against its `validate` tags.
// Field errors are flattened into one readable message so it can be shown to the operator as is.
func Validate(i interface{}) error {
	if i == nil {
		return fmt.Errorf("data to validate is nil")
	}

	return humanize(v.Struct(i))
}

// Var validates single value using the tag, i.e: Var("a@b.c", "required,email")
func Var(field interface{}, tag string) error {
	return humanize(v.Var(field, tag))
}

func humanize(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		name := fieldErr.Namespace()
		if name == "" {
			name = "value"
		}

		if fieldErr.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s=%s'", name, fieldErr.Tag(), fieldErr.Param()))
			continue
		}

		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", name, fieldErr.Tag()))
	}

	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), err)
}
