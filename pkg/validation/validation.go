package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "carpool/pkg/errors"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type FieldErrors []FieldError

func (v FieldErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors as field -> message for AppError details.
func (v FieldErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// Validator wraps go-playground/validator and reports fields by their JSON
// names so messages line up with what clients sent.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// Struct returns nil, FieldErrors, or the validator's own error when s is not
// a struct.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

// ToAppError converts a Struct error into a VALIDATION_ERROR AppError.
func ToAppError(message string, err error) *apperrors.AppError {
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, fieldErrs.Details())
	}
	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		return apperrors.Validation(message, map[string]any{fieldErr.Field: fieldErr.Message})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func translate(errs validator.ValidationErrors) FieldErrors {
	var out FieldErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "future":
			message = fmt.Sprintf("%s must be in the future", err.Field())
		}

		out = append(out, FieldError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return out
}
