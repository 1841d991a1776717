package workerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hacolby/assistant-sync/internal/assistants"
)

const (
	syncPathSuffixConstant                  = "/sync"
	authorizationHeaderNameConstant         = "Authorization"
	bearerTokenTemplateConstant             = "Bearer %s"
	contentTypeHeaderNameConstant           = "Content-Type"
	jsonContentTypeConstant                 = "application/json"
	endpointNotConfiguredMessageConstant    = "worker endpoint not configured"
	httpClientNotConfiguredMessageConstant  = "http client not configured"
	operationErrorTemplateConstant          = "%s operation failed: %s"
	statusErrorTemplateConstant             = "%s returned status %d: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	fetchRecordsOperationNameConstant       = OperationName("FetchRecords")
	submitBatchOperationNameConstant        = OperationName("SubmitBatch")
	responseBodyPreviewLengthLimitConstant  = 512
	actionInsertConstant                    = "insert"
	actionUpdateConstant                    = "update"
	arrayOpeningTokenConstant               = "["
)

// OperationName describes a named worker store operation supported by the client.
type OperationName string

// BatchAction enumerates the wire-level actions accepted by the worker store.
type BatchAction string

// Wire-level batch actions.
const (
	BatchActionInsert BatchAction = BatchAction(actionInsertConstant)
	BatchActionUpdate BatchAction = BatchAction(actionUpdateConstant)
)

// BatchOperation is one wire-level mutation step submitted to the store.
type BatchOperation struct {
	Action   BatchAction    `json:"action"`
	TargetID any            `json:"id,omitempty"`
	Data     map[string]any `json:"data"`
}

// BatchRequest is the payload accepted by the store's batch write endpoint.
type BatchRequest struct {
	Operations    []BatchOperation `json:"operations"`
	Source        string           `json:"source"`
	Timestamp     string           `json:"timestamp"`
	RunIdentifier string           `json:"runId,omitempty"`
}

// BatchAcknowledgement carries the store's response to a batch submission.
type BatchAcknowledgement map[string]any

// HTTPDoer is the minimal interface required from net/http clients.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client coordinates worker store requests over HTTP.
type Client struct {
	httpDoer HTTPDoer
	endpoint string
	apiToken string
}

var (
	// ErrEndpointNotConfigured indicates the client was constructed without a store endpoint.
	ErrEndpointNotConfigured = errors.New(endpointNotConfiguredMessageConstant)
	// ErrHTTPClientNotConfigured indicates the client was constructed without an HTTP doer.
	ErrHTTPClientNotConfigured = errors.New(httpClientNotConfiguredMessageConstant)
)

// OperationError wraps transport failures for worker store operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// StatusError indicates the store answered with a non-success status code.
type StatusError struct {
	Operation    OperationName
	StatusCode   int
	ResponseBody string
}

// Error describes the status failure.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.ResponseBody)
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a worker store client for the provided endpoint. The
// bearer token is optional: the read path may be unauthenticated.
func NewClient(httpDoer HTTPDoer, endpoint string, apiToken string) (*Client, error) {
	trimmedEndpoint := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if len(trimmedEndpoint) == 0 {
		return nil, ErrEndpointNotConfigured
	}
	if httpDoer == nil {
		return nil, ErrHTTPClientNotConfigured
	}

	return &Client{
		httpDoer: httpDoer,
		endpoint: trimmedEndpoint,
		apiToken: strings.TrimSpace(apiToken),
	}, nil
}

// FetchRecords retrieves the persisted assistant collection. The response may
// be a bare list or an object wrapping the list in an assistants or records
// field.
func (client *Client) FetchRecords(executionContext context.Context) ([]assistants.Record, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, client.endpoint, nil)
	if requestError != nil {
		return nil, OperationError{Operation: fetchRecordsOperationNameConstant, Cause: requestError}
	}
	client.applyAuthorization(request)

	response, transportError := client.httpDoer.Do(request)
	if transportError != nil {
		return nil, OperationError{Operation: fetchRecordsOperationNameConstant, Cause: transportError}
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, OperationError{Operation: fetchRecordsOperationNameConstant, Cause: readError}
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, StatusError{
			Operation:    fetchRecordsOperationNameConstant,
			StatusCode:   response.StatusCode,
			ResponseBody: previewResponseBody(responseBody),
		}
	}

	records, decodeError := decodeRecordCollection(responseBody)
	if decodeError != nil {
		return nil, ResponseDecodingError{Operation: fetchRecordsOperationNameConstant, Cause: decodeError}
	}

	return records, nil
}

// SubmitBatch posts the full mutation batch to the store's sync endpoint and
// returns the acknowledgement on success.
func (client *Client) SubmitBatch(executionContext context.Context, batchRequest BatchRequest) (BatchAcknowledgement, error) {
	encodedBatch, encodingError := json.Marshal(batchRequest)
	if encodingError != nil {
		return nil, PayloadEncodingError{Operation: submitBatchOperationNameConstant, Cause: encodingError}
	}

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, client.endpoint+syncPathSuffixConstant, bytes.NewReader(encodedBatch))
	if requestError != nil {
		return nil, OperationError{Operation: submitBatchOperationNameConstant, Cause: requestError}
	}
	request.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
	client.applyAuthorization(request)

	response, transportError := client.httpDoer.Do(request)
	if transportError != nil {
		return nil, OperationError{Operation: submitBatchOperationNameConstant, Cause: transportError}
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, OperationError{Operation: submitBatchOperationNameConstant, Cause: readError}
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, StatusError{
			Operation:    submitBatchOperationNameConstant,
			StatusCode:   response.StatusCode,
			ResponseBody: previewResponseBody(responseBody),
		}
	}

	acknowledgement := BatchAcknowledgement{}
	if len(bytes.TrimSpace(responseBody)) > 0 {
		if decodeError := json.Unmarshal(responseBody, &acknowledgement); decodeError != nil {
			return nil, ResponseDecodingError{Operation: submitBatchOperationNameConstant, Cause: decodeError}
		}
	}

	return acknowledgement, nil
}

func (client *Client) applyAuthorization(request *http.Request) {
	if len(client.apiToken) == 0 {
		return
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, client.apiToken))
}

func decodeRecordCollection(responseBody []byte) ([]assistants.Record, error) {
	trimmedBody := bytes.TrimSpace(responseBody)
	if len(trimmedBody) == 0 {
		return nil, nil
	}

	if strings.HasPrefix(string(trimmedBody), arrayOpeningTokenConstant) {
		bareCollection := []assistants.Record{}
		if decodeError := json.Unmarshal(trimmedBody, &bareCollection); decodeError != nil {
			return nil, decodeError
		}
		return bareCollection, nil
	}

	wrappedCollection := struct {
		Assistants []assistants.Record `json:"assistants"`
		Records    []assistants.Record `json:"records"`
	}{}
	if decodeError := json.Unmarshal(trimmedBody, &wrappedCollection); decodeError != nil {
		return nil, decodeError
	}
	if wrappedCollection.Assistants != nil {
		return wrappedCollection.Assistants, nil
	}
	return wrappedCollection.Records, nil
}

func previewResponseBody(responseBody []byte) string {
	preview := strings.TrimSpace(string(responseBody))
	if len(preview) > responseBodyPreviewLengthLimitConstant {
		preview = preview[:responseBodyPreviewLengthLimitConstant]
	}
	return preview
}
