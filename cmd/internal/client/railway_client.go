package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/avast/retry-go/v4"
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"
	"io"
	"net/http"
	"time"
)

const DefaultRailwayUrl = "https://backboard.railway.com/graphql/v2"

// ResourceGraphClient executes queries and mutations against the resource graph endpoint.
type ResourceGraphClient interface {
	Execute(ctx context.Context, query string, variables map[string]any) (Response, error)
}

// Response holds the "data" object of a successful exchange. When the endpoint reported an error
// list, Data is empty and Errors holds the list. It is up to the caller to decide whether the
// missing data is fatal.
type Response struct {
	Data   map[string]any
	Errors []ApiError
}

// HasErrors is true when the endpoint answered with an error list.
func (r Response) HasErrors() bool {
	return len(r.Errors) != 0
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]any `json:"data"`
	Errors []ApiError     `json:"errors,omitempty"`
}

type RailwayApiClient struct {
	Url        string
	Token      string
	HttpClient *http.Client
}

// NewRailwayApiClient returns a client for the resource graph endpoint. The token is checked here
// so a missing credential never reaches the network.
func NewRailwayApiClient(url string, token string, timeout time.Duration) (*RailwayApiClient, error) {
	if strutil.IsBlank(token) {
		return nil, &ConfigurationError{Setting: "railway API token"}
	}

	if url == "" {
		url = DefaultRailwayUrl
	}

	return &RailwayApiClient{
		Url:        url,
		Token:      token,
		HttpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (o *RailwayApiClient) Execute(ctx context.Context, query string, variables map[string]any) (response Response, funcErr error) {
	if _, parseErr := parser.ParseQuery(&ast.Source{Input: query}); parseErr != nil {
		return Response{}, fmt.Errorf("invalid graphql document: %w", parseErr)
	}

	requestBody, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})

	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Url, bytes.NewReader(requestBody))

	if err != nil {
		return Response{}, err
	}

	req.Header.Set("Authorization", "Bearer "+o.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := o.httpClient().Do(req)

	if err != nil {
		return Response{}, &TransportError{Err: err}
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	body, err := io.ReadAll(res.Body)

	if err != nil {
		return Response{}, &TransportError{StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Response{}, &TransportError{StatusCode: res.StatusCode, Body: string(body)}
	}

	result := graphQLResponse{}
	if err := json.Unmarshal(body, &result); err != nil {
		return Response{}, fmt.Errorf("failed to parse the resource graph response: %w", err)
	}

	if len(result.Errors) != 0 {
		zap.L().Warn("resource graph returned errors", zap.Error(JoinApiErrors(result.Errors)))
		return Response{Data: map[string]any{}, Errors: result.Errors}, nil
	}

	if result.Data == nil {
		result.Data = map[string]any{}
	}

	return Response{Data: result.Data}, nil
}

func (o *RailwayApiClient) httpClient() *http.Client {
	if o.HttpClient == nil {
		return http.DefaultClient
	}
	return o.HttpClient
}

// QueryWithRetry runs a read-only query, retrying transport failures. Mutations must never go
// through here, as a retried mutation may create a resource twice.
func QueryWithRetry(ctx context.Context, c ResourceGraphClient, query string, variables map[string]any, opts ...retry.Option) (Response, error) {
	options := append([]retry.Option{
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(1 * time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			zap.L().Debug("retrying resource graph query", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	}, opts...)

	return retry.DoWithData(func() (Response, error) {
		return c.Execute(ctx, query, variables)
	}, options...)
}

func isRetryable(err error) bool {
	var transportError *TransportError
	if !errors.As(err, &transportError) {
		return false
	}

	return transportError.StatusCode == 0 || transportError.StatusCode >= 500 || transportError.StatusCode == http.StatusTooManyRequests
}

// DecodeField converts the named field of a response into T. The second return value is false when
// the field is absent or null, which is how an error list or an unassigned value shows up.
func DecodeField[T any](response Response, field string) (T, bool, error) {
	var target T

	value, ok := response.Data[field]
	if !ok || value == nil {
		return target, false, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return target, false, err
	}

	if err := json.Unmarshal(raw, &target); err != nil {
		return target, false, fmt.Errorf("failed to decode field %s: %w", field, err)
	}

	return target, true, nil
}
