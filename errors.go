package formskema

import (
	"errors"
	"fmt"

	"github.com/reoring/formskema/validate"
)

var (
	// ErrNoSchema is returned when Props.Schema is missing.
	ErrNoSchema = errors.New("formskema: schema is required")
	// ErrSubmissionBlocked is matched by every *SubmissionBlockedError.
	ErrSubmissionBlocked = errors.New("formskema: submission blocked")
)

// SubmissionBlockedError is returned by Submit when validation fails.
type SubmissionBlockedError struct {
	Errors validate.Errors
}

func (e *SubmissionBlockedError) Error() string {
	return fmt.Sprintf("formskema: submission blocked by %d validation error(s): %s", len(e.Errors), e.Errors.Error())
}

// Is makes errors.Is(err, ErrSubmissionBlocked) hold.
func (e *SubmissionBlockedError) Is(target error) bool { return target == ErrSubmissionBlocked }

// Unwrap exposes the validation errors to errors.As.
func (e *SubmissionBlockedError) Unwrap() error { return e.Errors }

// AsSubmissionBlocked extracts a *SubmissionBlockedError using errors.As.
func AsSubmissionBlocked(err error) (*SubmissionBlockedError, bool) {
	var sb *SubmissionBlockedError
	if errors.As(err, &sb) {
		return sb, true
	}
	return nil, false
}
