package handler

import (
	"fmt"
	"reflect"
	"strings"

	"jewelry-service/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the request validator. Field names in error messages
// come from the json tag so callers see the names they sent.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator, turning validator failures into
// descriptive validation errors.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return apperr.Validation(describe(errs[0]))
	}
	return apperr.Validation("Invalid request payload")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
