package client

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigurationErrorMessage(t *testing.T) {
	tests := []struct {
		err      *ConfigurationError
		expected string
	}{
		{&ConfigurationError{Setting: "railway API token"}, "railway API token must be supplied"},
		{&ConfigurationError{Setting: "buddy name", Reason: "a project named roel-emrys already exists"}, "buddy name: a project named roel-emrys already exists"},
	}

	for _, test := range tests {
		if result := test.err.Error(); result != test.expected {
			t.Errorf("Error() = %s; want %s", result, test.expected)
		}
	}
}

func TestJoinApiErrors(t *testing.T) {
	if JoinApiErrors(nil) != nil {
		t.Fatalf("an empty list should not produce an error")
	}

	err := JoinApiErrors([]ApiError{{Message: "Not Authorized", Path: []any{"projectCreate"}}, {Message: "Rate limited"}})

	if !strings.Contains(err.Error(), "Not Authorized (at projectCreate)") || !strings.Contains(err.Error(), "Rate limited") {
		t.Fatalf("unexpected message %s", err.Error())
	}

	var apiError ApiError
	if !errors.As(err, &apiError) {
		t.Fatalf("the joined error should still expose the entries")
	}
}

func TestTransportErrorMessage(t *testing.T) {
	err := &TransportError{StatusCode: 502, Body: "bad gateway"}

	if err.Error() != "Status code was 502 with body bad gateway" {
		t.Fatalf("unexpected message %s", err.Error())
	}
}
