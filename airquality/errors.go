package airquality

import (
	"errors"
	"fmt"
)

// ValidationError marks a failure caused by malformed caller input, as
// opposed to an infrastructure fault. Handlers map it to a client error.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// validationf builds a ValidationError from a format string.
func validationf(format string, v ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, v...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
