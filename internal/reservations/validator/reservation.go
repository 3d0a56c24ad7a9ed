package validator

import (
	"errors"
	"fmt"
	"regexp"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/pkg/logger"
	"roomres/pkg/model"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var resourceNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.-]{0,63}$`)

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

// Details renders the errors as a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("resource_name", validateResourceName); err != nil {
		log.Fatal("Failed to register 'resource_name' validator",
			"error", err,
		)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func validateResourceName(fl validator.FieldLevel) bool {
	return ValidResourceName(fl.Field().String())
}

// ValidResourceName reports whether name may be used as a resource key.
func ValidResourceName(name string) bool {
	return resourceNameRegex.MatchString(name)
}

// Validate checks the shape of a reservation request. Whether the time range
// is admissible is decided later by CheckRange inside the admission worker.
func (v *ReservationValidator) Validate(req *model.ReserveRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "resource_name":
			message = fmt.Sprintf("%s must be 1-64 letters, digits, spaces, '.', '_' or '-'", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

// CheckRange accepts a range whose start precedes its end and which stays on
// the start's calendar day. An end of exactly the next midnight is allowed.
func CheckRange(start, end time.Time) error {
	if !start.Before(end) {
		return reservationserrors.ErrInvalidRange
	}
	nextMidnight := model.StartOfDay(start).AddDate(0, 0, 1)
	if end.After(nextMidnight) {
		return reservationserrors.ErrInvalidRange
	}
	return nil
}

// Overlaps reports whether [start1,end1) and [start2,end2) intersect.
// Touching boundaries do not overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

// Admit reports whether candidate can be committed alongside existing.
func Admit(existing []*model.Reservation, candidate model.Interval) bool {
	for _, r := range existing {
		existing := r.Interval()
		if Overlaps(existing.Start, existing.End, candidate.Start, candidate.End) {
			return false
		}
	}
	return true
}
