package editor

import (
	"errors"
	"fmt"
)

var (
	ErrOverlap         = errors.New("clip would overlap a sibling clip")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrNegativeStart   = errors.New("start time must not be negative")
	ErrTrackLocked     = errors.New("track is locked")
	ErrClipNotFound    = errors.New("clip not found")
	ErrTrackNotFound   = errors.New("track not found")
	ErrInvalidValue    = errors.New("invalid value")
	ErrNoChange        = errors.New("command would not change the arrangement")
)

// ConstraintError reports a rejected command. The arrangement it was applied
// to is left untouched.
type ConstraintError struct {
	Command Kind
	Err     error
	Detail  string
}

func (e *ConstraintError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s rejected: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s rejected: %v: %s", e.Command, e.Err, e.Detail)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func reject(kind Kind, err error, format string, args ...any) *ConstraintError {
	return &ConstraintError{Command: kind, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsConstraintViolation reports whether err is a rejected command rather than
// an unexpected failure.
func IsConstraintViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
