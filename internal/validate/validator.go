// Package validate wraps go-playground/validator for inbound payloads.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator provides struct validation using the underlying validator library.
type Validator struct {
	cli *validator.Validate
}

// FieldError describes a single failed constraint.
type FieldError struct {
	Field string
	Tag   string
}

// Error is returned when a struct fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Tag))
	}
	return "invalid payload: " + strings.Join(parts, ", ")
}

func New() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Struct validates s and returns an *Error listing every failed field.
func (v *Validator) Struct(s any) error {
	err := v.cli.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag()})
	}
	return out
}
