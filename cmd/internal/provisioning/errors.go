package provisioning

import (
	"fmt"
	"strings"
)

// AbortError is returned when a fatal step fails. Context holds everything captured before the
// failure. Nothing already created is cleaned up.
type AbortError struct {
	Step    string
	Context Context
	Cause   error
}

func (e *AbortError) Error() string {
	return "provisioning stopped at step \"" + e.Step + "\": " + e.Cause.Error()
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

// EmptyResultError means a response did not contain a value the step needed.
type EmptyResultError struct {
	Field string
	// Cause is the API error list, if the endpoint returned one.
	Cause error
}

func (e *EmptyResultError) Error() string {
	if e.Cause != nil {
		return "no " + e.Field + " was returned: " + e.Cause.Error()
	}
	return "no " + e.Field + " was returned"
}

func (e *EmptyResultError) Unwrap() error {
	return e.Cause
}

// PreconditionError means a step was reached without the values it depends on.
type PreconditionError struct {
	Step    string
	Missing []Field
}

func (e *PreconditionError) Error() string {
	missing := make([]string, 0, len(e.Missing))
	for _, field := range e.Missing {
		missing = append(missing, string(field))
	}
	return fmt.Sprintf("step %q requires %s", e.Step, strings.Join(missing, ", "))
}
