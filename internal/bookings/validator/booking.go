package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"voyara/pkg/logger"
	"voyara/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRegex = regexp.MustCompile(`^(?:|\+[1-9]\d{7,14})$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("intl_phone", validateIntlPhone); err != nil {
		log.Fatal("Failed to register 'intl_phone' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a submitted booking request: struct tags first, then the
// cross-field rules the tags cannot express.
func (bv *BookingValidator) Validate(booking *model.BookingRequest) error {
	var errs ValidationErrors

	if err := bv.validate.Struct(booking); err != nil {
		errs = append(errs, translate(err)...)
	}

	errs = append(errs, validateItems(booking)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateItems(booking *model.BookingRequest) ValidationErrors {
	var errs ValidationErrors

	items := booking.Items()
	if len(items) == 0 {
		errs = append(errs, ValidationError{
			Field:   "line_items",
			Message: "at least one of villa, car, or yacht is required",
		})
		return errs
	}

	for kind, item := range items {
		field := string(kind)

		switch kind {
		case model.KindYacht:
			// Yacht charters are same-day; the end instant carries the
			// end-of-day time on the start date.
			if !sameDay(item.StartTime, item.EndTime) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "yacht charter must start and end on the same day",
				})
			}
			if item.EndTime.Before(item.StartTime) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "yacht charter end time must not be before start time",
				})
			}
		default:
			if !item.EndTime.After(item.StartTime) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "end time must be after start time",
				})
			}
		}
	}

	return errs
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func validateIntlPhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func translate(err error) ValidationErrors {
	var errs ValidationErrors

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs = append(errs, ValidationError{Field: "request", Message: err.Error()})
		return errs
	}

	for _, fe := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   fe.Namespace(),
			Message: messageFor(fe),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "intl_phone":
		return "must be an international phone number like +15551234567"
	case "mongodb":
		return "must be a valid document id"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation rule %q", fe.Tag())
	}
}
