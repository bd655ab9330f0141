package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ErrValidation struct {
	error
}

func NewErrValidation(format string, args ...any) *ErrValidation {
	return &ErrValidation{fmt.Errorf(format, args...)}
}

func NewErrInvalidPageRange(start, end int) *ErrValidation {
	return NewErrValidation("invalid page range %d-%d: start must be at least 1 and not after end", start, end)
}

func NewErrEmptyUpload() *ErrValidation {
	return NewErrValidation("uploaded file is empty")
}

func NewErrInvalidJobID(id string) *ErrValidation {
	if id == "" {
		return NewErrValidation("job id is required")
	}
	return NewErrValidation("invalid job id %q", id)
}

// ErrUpstreamFailure halts the pipeline. Stage names the collaborator call that failed.
type ErrUpstreamFailure struct {
	error
	Stage string
}

func NewErrUpstreamFailure(stage string, cause error) *ErrUpstreamFailure {
	return &ErrUpstreamFailure{error: fmt.Errorf("%s stage failed: %w", stage, cause), Stage: stage}
}

func (e *ErrUpstreamFailure) Unwrap() error {
	return e.error
}

// Timeout reports whether the stage ran out of time.
func (e *ErrUpstreamFailure) Timeout() bool {
	return errors.Is(e.error, context.DeadlineExceeded)
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrDocumentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "document for job")
}
