package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type ErrInvalidInput struct {
	error
	Field string
}

func NewErrInvalidInput(field string, format string, args ...any) *ErrInvalidInput {
	return &ErrInvalidInput{error: fmt.Errorf(format, args...), Field: field}
}

func newErrFromFieldError(fe validator.FieldError) *ErrInvalidInput {
	switch fe.Tag() {
	case "page_range":
		return NewErrInvalidInput(fe.Field(), "invalid page range: start must be at least 1 and end must not be before start")
	case "job_id":
		return NewErrInvalidInput(fe.Field(), "invalid job id %q", fe.Value())
	case "required":
		return NewErrInvalidInput(fe.Field(), "%s is required", fe.Field())
	case "gt":
		return NewErrInvalidInput(fe.Field(), "uploaded file is empty")
	default:
		return NewErrInvalidInput(fe.Field(), "%s failed the %s rule", fe.Field(), fe.Tag())
	}
}
