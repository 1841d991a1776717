package discovery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hacolby/assistant-sync/internal/discovery"
)

func TestNewSearchClientRequiresHTTPDoer(testInstance *testing.T) {
	_, clientError := discovery.NewSearchClient(nil, "", "token", discoveryClock())
	require.ErrorIs(testInstance, clientError, discovery.ErrSearchClientNotConfigured)
}

func TestSearchRepositoriesBuildsQualifiedQuery(testInstance *testing.T) {
	capturedRequest := struct {
		path   string
		query  string
		sort   string
		auth   string
		accept string
	}{}

	searchServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		capturedRequest.path = request.URL.Path
		capturedRequest.query = request.URL.Query().Get("q")
		capturedRequest.sort = request.URL.Query().Get("sort")
		capturedRequest.auth = request.Header.Get("Authorization")
		capturedRequest.accept = request.Header.Get("Accept")

		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(`{"items":[{"full_name":"example/agent","html_url":"https://github.com/example/agent","stargazers_count":120}]}`))
	}))
	defer searchServer.Close()

	client, clientError := discovery.NewSearchClient(searchServer.Client(), searchServer.URL, "search-token", discoveryClock())
	require.NoError(testInstance, clientError)

	repositories, searchError := client.SearchRepositories(context.Background(), discovery.SearchQuery{
		Keyword:        "workers ai assistant",
		MinimumStars:   20,
		MaximumAgeDays: 365,
		Language:       "typescript",
	})
	require.NoError(testInstance, searchError)
	require.Len(testInstance, repositories, 1)
	require.Equal(testInstance, "example/agent", repositories[0].FullName)
	require.Equal(testInstance, 120, repositories[0].StargazersCount)

	require.Equal(testInstance, "/search/repositories", capturedRequest.path)
	require.Equal(testInstance, "workers ai assistant stars:>=20 created:>=2025-08-30 language:typescript", capturedRequest.query)
	require.Equal(testInstance, "stars", capturedRequest.sort)
	require.Equal(testInstance, "token search-token", capturedRequest.auth)
	require.Equal(testInstance, "application/vnd.github.v3+json", capturedRequest.accept)
}

func TestSearchRepositoriesOmitsAuthorizationWithoutToken(testInstance *testing.T) {
	capturedAuthorization := "unset"

	searchServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		capturedAuthorization = request.Header.Get("Authorization")
		_, _ = responseWriter.Write([]byte(`{"items":[]}`))
	}))
	defer searchServer.Close()

	client, clientError := discovery.NewSearchClient(searchServer.Client(), searchServer.URL, "", discoveryClock())
	require.NoError(testInstance, clientError)

	_, searchError := client.SearchRepositories(context.Background(), discovery.SearchQuery{Keyword: "query", MinimumStars: 1, MaximumAgeDays: 1})
	require.NoError(testInstance, searchError)
	require.Empty(testInstance, capturedAuthorization)
}

func TestSearchRepositoriesReportsStatusErrors(testInstance *testing.T) {
	searchServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusForbidden)
		_, _ = responseWriter.Write([]byte(`{"message":"rate limit exceeded"}`))
	}))
	defer searchServer.Close()

	client, clientError := discovery.NewSearchClient(searchServer.Client(), searchServer.URL, "token", discoveryClock())
	require.NoError(testInstance, clientError)

	_, searchError := client.SearchRepositories(context.Background(), discovery.SearchQuery{Keyword: "query", MinimumStars: 1, MaximumAgeDays: 1})
	require.Error(testInstance, searchError)

	statusError := discovery.SearchStatusError{}
	require.ErrorAs(testInstance, searchError, &statusError)
	require.Equal(testInstance, http.StatusForbidden, statusError.StatusCode)
	require.Contains(testInstance, statusError.ResponseBody, "rate limit exceeded")
}
