package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/buddyfleet/buddyops/cmd/internal/model/catalog"
	"github.com/buddyfleet/buddyops/cmd/internal/strutil"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultCatalogUrl = "https://generativelanguage.googleapis.com/v1beta"

// CatalogClient lists the models offered by the generative model catalog.
type CatalogClient interface {
	ListModels(ctx context.Context) ([]catalog.ModelDescriptor, error)
}

type GeminiCatalogClient struct {
	Url        string
	ApiKey     string
	HttpClient *http.Client
}

func NewGeminiCatalogClient(url string, apiKey string, timeout time.Duration) *GeminiCatalogClient {
	if url == "" {
		url = DefaultCatalogUrl
	}

	return &GeminiCatalogClient{
		Url:        url,
		ApiKey:     apiKey,
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// ListModels makes a single attempt to fetch the catalog. There are no retries: callers degrade
// to defaults instead.
func (c *GeminiCatalogClient) ListModels(ctx context.Context) (models []catalog.ModelDescriptor, funcErr error) {
	if strutil.IsBlank(c.ApiKey) {
		return nil, &ConfigurationError{Setting: "catalog API key"}
	}

	requestURL := strutil.EnsureSuffix(c.Url, "/") + "models?key=" + url.QueryEscape(c.ApiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)

	if err != nil {
		return nil, err
	}

	httpClient := c.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	res, err := httpClient.Do(req)

	if err != nil {
		return nil, &TransportError{Err: redactKey(err)}
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			funcErr = errors.Join(funcErr, err)
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, &TransportError{StatusCode: res.StatusCode, Body: string(body)}
	}

	modelList := catalog.ModelList{}
	if err := json.NewDecoder(res.Body).Decode(&modelList); err != nil {
		return nil, fmt.Errorf("failed to parse the model catalog: %w", err)
	}

	return modelList.Models, nil
}

// redactKey removes the query string from url errors, as it holds the API key.
func redactKey(err error) error {
	var urlError *url.Error
	if errors.As(err, &urlError) {
		if parsed, parseErr := url.Parse(urlError.URL); parseErr == nil {
			parsed.RawQuery = ""
			urlError.URL = parsed.String()
		}
	}
	return err
}
