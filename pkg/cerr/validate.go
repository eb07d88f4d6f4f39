package cerr

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// NewValidationError converts validator output into an InvalidArgument error
// carrying one violation per rejected field.
func NewValidationError(err error) *Error {
	cErr := NewError(InvalidArgument, "invalid request", err)
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			cErr.AddViolation(fe.Field(), "failed on rule "+fe.Tag())
		}
	}
	return cErr
}
