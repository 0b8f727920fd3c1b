package client

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError is returned when a request could not be completed, or completed with a
// non-success status code. StatusCode is 0 when the request never got a response.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return "request failed: " + e.Err.Error()
	}

	return "Status code was " + fmt.Sprint(e.StatusCode) + " with body " + e.Body
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApiError is a single entry of the "errors" list of a resource graph response.
type ApiError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (e ApiError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}

	path := make([]string, 0, len(e.Path))
	for _, segment := range e.Path {
		path = append(path, fmt.Sprint(segment))
	}

	return e.Message + " (at " + strings.Join(path, ".") + ")"
}

// JoinApiErrors folds an API error list into a single error, or nil when the list is empty.
func JoinApiErrors(apiErrors []ApiError) error {
	var joined error
	for _, apiError := range apiErrors {
		joined = errors.Join(joined, apiError)
	}
	return joined
}

// ConfigurationError means a required setting, usually a credential, was not supplied.
// It is always raised before any remote call is attempted.
type ConfigurationError struct {
	Setting string
	// Reason replaces the default "must be supplied" message when the setting was given but rejected.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return e.Setting + ": " + e.Reason
	}
	return e.Setting + " must be supplied"
}
