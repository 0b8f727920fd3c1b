package client

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/avast/retry-go/v4"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const projectQuery = `query project($id: String!) { project(id: $id) { id name } }`

func TestExecuteReturnsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("Authorization header was %q", r.Header.Get("Authorization"))
		}

		if r.Method != http.MethodPost {
			t.Errorf("method was %s", r.Method)
		}

		request := graphQLRequest{}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("could not decode request: %v", err)
		}

		if request.Variables["id"] != "p-1" {
			t.Errorf("variables were %v", request.Variables)
		}

		w.Write([]byte(`{"data":{"project":{"id":"p-1","name":"roel-emrys"}}}`))
	}))
	defer server.Close()

	client, err := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	response, err := client.Execute(context.Background(), projectQuery, map[string]any{"id": "p-1"})
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	project, ok, err := DecodeField[struct {
		Id   string `json:"id"`
		Name string `json:"name"`
	}](response, "project")

	if err != nil || !ok {
		t.Fatalf("project should have decoded, ok=%v err=%v", ok, err)
	}

	if project.Id != "p-1" || project.Name != "roel-emrys" {
		t.Fatalf("unexpected project %+v", project)
	}
}

func TestExecuteApiErrorsReturnEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Not Authorized","path":["project"]}],"data":{"project":null}}`))
	}))
	defer server.Close()

	client, _ := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)

	response, err := client.Execute(context.Background(), projectQuery, map[string]any{"id": "p-1"})
	if err != nil {
		t.Fatalf("An API error list should not be returned as an error: %v", err)
	}

	if len(response.Data) != 0 {
		t.Fatalf("Data should have been empty, was %v", response.Data)
	}

	if !response.HasErrors() || response.Errors[0].Message != "Not Authorized" {
		t.Fatalf("Errors should have been carried on the response, were %v", response.Errors)
	}

	if response.Errors[0].Error() != "Not Authorized (at project)" {
		t.Fatalf("unexpected error text %q", response.Errors[0].Error())
	}
}

func TestExecuteNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client, _ := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)

	_, err := client.Execute(context.Background(), projectQuery, nil)

	var transportError *TransportError
	if !errors.As(err, &transportError) {
		t.Fatalf("expected a TransportError, got %v", err)
	}

	if transportError.StatusCode != http.StatusBadGateway || transportError.Body != "upstream down" {
		t.Fatalf("unexpected transport error %+v", transportError)
	}
}

func TestExecuteRejectsInvalidDocument(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, _ := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)

	if _, err := client.Execute(context.Background(), "query { project(", nil); err == nil {
		t.Fatalf("A malformed document should have returned an error")
	}

	if called {
		t.Fatalf("A malformed document should not reach the server")
	}
}

func TestNewRailwayApiClientRequiresToken(t *testing.T) {
	_, err := NewRailwayApiClient("http://example.org", " ", time.Second)

	var configurationError *ConfigurationError
	if !errors.As(err, &configurationError) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestQueryWithRetryRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"me":{"id":"u-1"}}}`))
	}))
	defer server.Close()

	client, _ := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)

	response, err := QueryWithRetry(context.Background(), client, `query { me { id } }`, nil, retry.Delay(0))
	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	if _, ok := response.Data["me"]; !ok {
		t.Fatalf("me should have been returned")
	}
}

func TestQueryWithRetryDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := NewRailwayApiClient(server.URL, "token-1", 5*time.Second)

	_, err := QueryWithRetry(context.Background(), client, `query { me { id } }`, nil, retry.Delay(0))

	var transportError *TransportError
	if !errors.As(err, &transportError) || transportError.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 TransportError, got %v", err)
	}

	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDecodeFieldMissing(t *testing.T) {
	_, ok, err := DecodeField[map[string]any](Response{Data: map[string]any{"other": 1}}, "project")
	if err != nil || ok {
		t.Fatalf("a missing field should decode as absent, ok=%v err=%v", ok, err)
	}
}
