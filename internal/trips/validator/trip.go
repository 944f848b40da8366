package validator

import (
	"errors"
	"time"

	"carpool/pkg/model"
	"carpool/pkg/validation"
)

type TripValidator struct {
	validate *validation.Validator
	now      func() time.Time
}

func NewTripValidator() *TripValidator {
	return &TripValidator{
		validate: validation.New(),
		now:      time.Now,
	}
}

// NewTripValidatorWithClock is used by tests that need a fixed "now".
func NewTripValidatorWithClock(now func() time.Time) *TripValidator {
	return &TripValidator{
		validate: validation.New(),
		now:      now,
	}
}

// Validate checks field constraints and then the scheduling rule. Both sets of
// problems are reported together.
func (v *TripValidator) Validate(input *model.TripInput) error {
	var fieldErrs validation.FieldErrors

	if err := v.validate.Struct(input); err != nil {
		if !errors.As(err, &fieldErrs) {
			return err
		}
	}

	if !input.DepartureTime.IsZero() && !input.DepartureTime.After(v.now()) {
		fieldErrs = append(fieldErrs, validation.FieldError{
			Field:   "departure_time",
			Message: "departure_time must be in the future",
		})
	}

	if len(fieldErrs) > 0 {
		return fieldErrs
	}
	return nil
}

func (v *TripValidator) ValidateSearch(search *model.TripSearch) error {
	return v.validate.Struct(search)
}
