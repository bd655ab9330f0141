package client

import "fmt"

// ErrUpstreamStatus is returned when a collaborator answers with a non-2xx status.
type ErrUpstreamStatus struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ErrUpstreamStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s service returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s service returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ErrResponseTooLarge is returned instead of a truncated body.
type ErrResponseTooLarge struct {
	Service string
	Limit   int
}

func (e *ErrResponseTooLarge) Error() string {
	return fmt.Sprintf("%s service response exceeds %d bytes", e.Service, e.Limit)
}
