package logtail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ingestPathConstant                     = "/api/v1/logs/ingest"
	ingestBatchPathConstant                = "/api/v1/logs/ingest/batch"
	searchPathConstant                     = "/api/v1/logs/search"
	authorizationHeaderNameConstant        = "Authorization"
	bearerTokenTemplateConstant            = "Bearer %s"
	contentTypeHeaderNameConstant          = "Content-Type"
	jsonContentTypeConstant                = "application/json"
	baseURLNotConfiguredMessageConstant    = "log service base URL not configured"
	serviceNameNotConfiguredMessage        = "log service client requires a service name"
	httpClientNotConfiguredMessageConstant = "log service client requires an http client"
	apiKeyRequiredMessageConstant          = "log search requires an API key"
	requestFailedTemplateConstant          = "log service request to %s failed: %w"
	statusFailureTemplateConstant          = "log service %s returned status %d: %s"
	responseBodyPreviewLengthLimitConstant = 256
	logLevelInfoConstant                   = "info"
	logLevelWarnConstant                   = "warn"
	logLevelErrorConstant                  = "error"
)

// Entry is one structured log record accepted by the ingestion endpoints.
type Entry struct {
	Service   string         `json:"service"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// SearchQuery describes a secured log search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// HTTPDoer is the minimal interface required from net/http clients.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

var (
	// ErrBaseURLNotConfigured indicates the client was constructed without a base URL.
	ErrBaseURLNotConfigured = errors.New(baseURLNotConfiguredMessageConstant)
	// ErrServiceNameNotConfigured indicates the client was constructed without a service name.
	ErrServiceNameNotConfigured = errors.New(serviceNameNotConfiguredMessage)
	// ErrHTTPClientNotConfigured indicates the client was constructed without an HTTP doer.
	ErrHTTPClientNotConfigured = errors.New(httpClientNotConfiguredMessageConstant)
	// ErrAPIKeyRequired indicates a secured endpoint was called without an API key.
	ErrAPIKeyRequired = errors.New(apiKeyRequiredMessageConstant)
)

// Client talks to the log service, applying authentication only where required.
type Client struct {
	httpDoer    HTTPDoer
	baseURL     string
	serviceName string
	apiKey      string
}

// NewClient constructs a log service client. The API key is optional and only
// used for secured endpoints.
func NewClient(httpDoer HTTPDoer, baseURL string, serviceName string, apiKey string) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	trimmedServiceName := strings.TrimSpace(serviceName)
	if len(trimmedServiceName) == 0 {
		return nil, ErrServiceNameNotConfigured
	}
	if httpDoer == nil {
		return nil, ErrHTTPClientNotConfigured
	}

	return &Client{
		httpDoer:    httpDoer,
		baseURL:     trimmedBaseURL,
		serviceName: trimmedServiceName,
		apiKey:      strings.TrimSpace(apiKey),
	}, nil
}

// Ingest sends one log entry to the public ingestion endpoint.
func (client *Client) Ingest(executionContext context.Context, level string, message string, contextFields map[string]any) error {
	entry := Entry{
		Service:   client.serviceName,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Context:   contextFields,
	}
	return client.postJSON(executionContext, ingestPathConstant, entry, false, nil)
}

// IngestBatch sends multiple log entries to the public batch ingestion endpoint.
func (client *Client) IngestBatch(executionContext context.Context, entries []Entry) error {
	stampedEntries := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Service) == 0 {
			entry.Service = client.serviceName
		}
		if len(entry.Timestamp) == 0 {
			entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
		}
		stampedEntries = append(stampedEntries, entry)
	}
	return client.postJSON(executionContext, ingestBatchPathConstant, stampedEntries, false, nil)
}

// Info ships an informational entry.
func (client *Client) Info(executionContext context.Context, message string, contextFields map[string]any) error {
	return client.Ingest(executionContext, logLevelInfoConstant, message, contextFields)
}

// Warn ships a warning entry.
func (client *Client) Warn(executionContext context.Context, message string, contextFields map[string]any) error {
	return client.Ingest(executionContext, logLevelWarnConstant, message, contextFields)
}

// Error ships an error entry.
func (client *Client) Error(executionContext context.Context, message string, contextFields map[string]any) error {
	return client.Ingest(executionContext, logLevelErrorConstant, message, contextFields)
}

// Search queries the secured search endpoint and returns the raw result rows.
func (client *Client) Search(executionContext context.Context, query SearchQuery) ([]map[string]any, error) {
	if len(client.apiKey) == 0 {
		return nil, ErrAPIKeyRequired
	}

	searchResults := struct {
		Results []map[string]any `json:"results"`
	}{}
	if searchError := client.postJSON(executionContext, searchPathConstant, query, true, &searchResults); searchError != nil {
		return nil, searchError
	}
	return searchResults.Results, nil
}

func (client *Client) postJSON(executionContext context.Context, apiPath string, requestPayload any, authenticated bool, responseTarget any) error {
	encodedPayload, encodingError := json.Marshal(requestPayload)
	if encodingError != nil {
		return fmt.Errorf(requestFailedTemplateConstant, apiPath, encodingError)
	}

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, client.baseURL+apiPath, bytes.NewReader(encodedPayload))
	if requestError != nil {
		return fmt.Errorf(requestFailedTemplateConstant, apiPath, requestError)
	}
	request.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
	if authenticated {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, client.apiKey))
	}

	response, transportError := client.httpDoer.Do(request)
	if transportError != nil {
		return fmt.Errorf(requestFailedTemplateConstant, apiPath, transportError)
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return fmt.Errorf(requestFailedTemplateConstant, apiPath, readError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		preview := strings.TrimSpace(string(responseBody))
		if len(preview) > responseBodyPreviewLengthLimitConstant {
			preview = preview[:responseBodyPreviewLengthLimitConstant]
		}
		return fmt.Errorf(statusFailureTemplateConstant, apiPath, response.StatusCode, preview)
	}

	if responseTarget != nil && len(bytes.TrimSpace(responseBody)) > 0 {
		if decodeError := json.Unmarshal(responseBody, responseTarget); decodeError != nil {
			return fmt.Errorf(requestFailedTemplateConstant, apiPath, decodeError)
		}
	}

	return nil
}
