package utils

import (
	"github.com/go-playground/validator/v10"

	apperrors "delivery-system/pkg/errors"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(v *validator.Validate) *Validator {
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.NewValidationError("%s", err.Error())
	}
	return nil
}
