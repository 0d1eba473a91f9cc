package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/savemymoney/savemymoney-backend/internal/domain"
)

// RequestValidator implements echo.Validator with go-playground/validator
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator with the ledger's custom tags registered
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("monthkey", validateMonthKey)
	_ = v.RegisterValidation("isodate", validateISODate)
	_ = v.RegisterValidation("emoji", validateEmoji)
	_ = v.RegisterValidation("txtype", validateTransactionType)

	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

func validateMonthKey(fl validator.FieldLevel) bool {
	_, err := domain.ParseMonthKey(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseISODate(fl.Field().String())
	return err == nil
}

// validateEmoji accepts an empty icon, which means the default one
func validateEmoji(fl validator.FieldLevel) bool {
	icon := fl.Field().String()
	return icon == "" || domain.ValidateIcon(icon) == nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return domain.TransactionType(fl.Field().String()).IsValid()
}

// toValidationErrors converts validator errors into problem detail entries
func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be %s characters or less", fe.Param())
	case "monthkey":
		return "Must be a month in YYYY-MM format"
	case "isodate":
		return "Must be a date in YYYY-MM-DD format"
	case "emoji":
		return "Icon must be a single emoji"
	case "txtype":
		return "Must be spending or income"
	default:
		return "Invalid value"
	}
}
