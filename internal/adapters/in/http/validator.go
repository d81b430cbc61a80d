package http

import (
	"robodelivery/internal/pkg/errs"

	"github.com/go-playground/validator"
)

// RequestValidator plugs go-playground/validator into echo's Context.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator wraps go-playground/validator for echo.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate checks the struct tags of a bound request.
func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return errs.NewValueIsInvalidErrorWithCause(fieldErrs[0].Field(), err)
		}
		return errs.NewValueIsInvalidErrorWithCause("request", err)
	}
	return nil
}
