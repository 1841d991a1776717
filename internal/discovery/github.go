package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGitHubBaseURLConstant           = "https://api.github.com"
	searchRepositoriesPathConstant         = "/search/repositories"
	queryParameterNameConstant             = "q"
	sortParameterNameConstant              = "sort"
	orderParameterNameConstant             = "order"
	perPageParameterNameConstant           = "per_page"
	starsSortValueConstant                 = "stars"
	descendingOrderValueConstant           = "desc"
	searchPageSizeConstant                 = "20"
	tokenAuthorizationTemplateConstant     = "token %s"
	githubAcceptHeaderValueConstant        = "application/vnd.github.v3+json"
	acceptHeaderNameConstant               = "Accept"
	githubAuthorizationHeaderNameConstant  = "Authorization"
	starsQualifierTemplateConstant         = "stars:>=%d"
	createdQualifierTemplateConstant       = "created:>=%s"
	languageQualifierTemplateConstant      = "language:%s"
	qualifierDateLayoutConstant            = "2006-01-02"
	searchRequestErrorTemplateConstant     = "repository search failed: %w"
	searchStatusErrorTemplateConstant      = "repository search returned status %d: %s"
	searchDecodingErrorTemplateConstant    = "repository search response decoding failed: %w"
	searchClientMissingDoerMessageConstant = "http client not configured for repository search"
	searchBodyPreviewLengthLimitConstant   = 256
	hoursPerDayConstant                    = 24
)

// Repository is the subset of the GitHub repository representation the
// discovery workflow consumes.
type Repository struct {
	FullName        string   `json:"full_name"`
	HTMLURL         string   `json:"html_url"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	UpdatedAt       string   `json:"updated_at"`
	Homepage        string   `json:"homepage"`
}

type searchResponseDocument struct {
	Items []Repository `json:"items"`
}

// SearchQuery describes one repository search: the free-text keyword plus the
// qualifiers narrowing its results.
type SearchQuery struct {
	Keyword        string
	MinimumStars   int
	MaximumAgeDays int
	Language       string
}

// ErrSearchClientNotConfigured indicates the search client was constructed
// without an HTTP doer.
var ErrSearchClientNotConfigured = errors.New(searchClientMissingDoerMessageConstant)

// SearchStatusError indicates the search API answered with a non-success
// status code.
type SearchStatusError struct {
	StatusCode   int
	ResponseBody string
}

// Error describes the status failure.
func (statusError SearchStatusError) Error() string {
	return fmt.Sprintf(searchStatusErrorTemplateConstant, statusError.StatusCode, statusError.ResponseBody)
}

// HTTPDoer is the minimal interface required from net/http clients.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

// SearchClient queries the GitHub repository search API.
type SearchClient struct {
	httpDoer HTTPDoer
	baseURL  string
	token    string
	clock    Clock
}

// NewSearchClient constructs a SearchClient. An empty base URL selects the
// public GitHub API; the token is optional but strongly rate-limited without.
func NewSearchClient(httpDoer HTTPDoer, baseURL string, token string, clock Clock) (*SearchClient, error) {
	if httpDoer == nil {
		return nil, ErrSearchClientNotConfigured
	}

	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if len(trimmedBaseURL) == 0 {
		trimmedBaseURL = defaultGitHubBaseURLConstant
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &SearchClient{
		httpDoer: httpDoer,
		baseURL:  trimmedBaseURL,
		token:    strings.TrimSpace(token),
		clock:    clock,
	}, nil
}

// SearchRepositories runs one search query sorted by stars descending and
// returns the first result page.
func (client *SearchClient) SearchRepositories(executionContext context.Context, query SearchQuery) ([]Repository, error) {
	requestURL := client.baseURL + searchRepositoriesPathConstant + "?" + client.queryParameters(query).Encode()

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, fmt.Errorf(searchRequestErrorTemplateConstant, requestError)
	}
	request.Header.Set(acceptHeaderNameConstant, githubAcceptHeaderValueConstant)
	if len(client.token) > 0 {
		request.Header.Set(githubAuthorizationHeaderNameConstant, fmt.Sprintf(tokenAuthorizationTemplateConstant, client.token))
	}

	response, responseError := client.httpDoer.Do(request)
	if responseError != nil {
		return nil, fmt.Errorf(searchRequestErrorTemplateConstant, responseError)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		bodyPreview, _ := io.ReadAll(io.LimitReader(response.Body, searchBodyPreviewLengthLimitConstant))
		return nil, SearchStatusError{StatusCode: response.StatusCode, ResponseBody: strings.TrimSpace(string(bodyPreview))}
	}

	document := searchResponseDocument{}
	if decodeError := json.NewDecoder(response.Body).Decode(&document); decodeError != nil {
		return nil, fmt.Errorf(searchDecodingErrorTemplateConstant, decodeError)
	}

	return document.Items, nil
}

func (client *SearchClient) queryParameters(query SearchQuery) url.Values {
	qualifiedQuery := []string{
		query.Keyword,
		fmt.Sprintf(starsQualifierTemplateConstant, query.MinimumStars),
		fmt.Sprintf(createdQualifierTemplateConstant, client.earliestCreationDate(query.MaximumAgeDays)),
	}
	if len(query.Language) > 0 {
		qualifiedQuery = append(qualifiedQuery, fmt.Sprintf(languageQualifierTemplateConstant, query.Language))
	}

	parameters := url.Values{}
	parameters.Set(queryParameterNameConstant, strings.Join(qualifiedQuery, " "))
	parameters.Set(sortParameterNameConstant, starsSortValueConstant)
	parameters.Set(orderParameterNameConstant, descendingOrderValueConstant)
	parameters.Set(perPageParameterNameConstant, searchPageSizeConstant)
	return parameters
}

func (client *SearchClient) earliestCreationDate(maximumAgeDays int) string {
	return client.clock.Now().UTC().
		Add(-time.Duration(maximumAgeDays) * hoursPerDayConstant * time.Hour).
		Format(qualifierDateLayoutConstant)
}
