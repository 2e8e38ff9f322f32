package api

import (
	"errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NewFieldErrors flattens ozzo validation errors into one message per field.
// It reports false when err does not carry field errors.
func NewFieldErrors(err error) (FieldErrors, bool) {
	var validationErrors validation.Errors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}

	fieldErrors := make(FieldErrors, len(validationErrors))
	for field, fieldErr := range validationErrors {
		if fieldErr == nil {
			continue
		}
		fieldErrors[field] = fieldErr.Error()
	}
	return fieldErrors, true
}
