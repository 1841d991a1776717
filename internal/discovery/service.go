package discovery

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	categoryHeadingTemplateConstant      = "Discovering: %s\n"
	searchingKeywordTemplateConstant     = "  searching: %s\n"
	newRepositoriesTemplateConstant      = "Found %d new repositories out of %d total\n"
	noNewRepositoriesMessageConstant     = "No new repositories to recommend\n"
	recommendationLineTemplateConstant   = "  %d. %s (%d stars)\n"
	discoveryCompleteTemplateConstant    = "Discovery complete: %d recommendations across %d categories\n"
	searchFailedMessageConstant          = "repository search failed; continuing with partial results"
	logFieldCategoryConstant             = "category"
	logFieldKeywordConstant              = "keyword"
	logFieldDiscoveredCountConstant      = "discovered_count"
	logFieldRecommendationCountConstant  = "recommendation_count"
	categoryDiscoveredMessageConstant    = "category discovery completed"
)

// Recommendation is one repository surfaced to the operator for catalog
// consideration.
type Recommendation struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updated_at"`
	Homepage    string   `json:"homepage"`
}

// CategoryResult reports the discovery outcome for one category.
type CategoryResult struct {
	CategoryKey     string           `json:"category_key"`
	CategoryName    string           `json:"category_name"`
	DiscoveredCount int              `json:"discovered_count"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Report aggregates one discovery run across all searched categories.
type Report struct {
	Timestamp            string           `json:"timestamp"`
	CategoriesSearched   []string         `json:"categories_searched"`
	Categories           []CategoryResult `json:"categories"`
	TotalRecommendations int              `json:"total_recommendations"`
}

// RepositorySearcher runs one search query against a repository index.
type RepositorySearcher interface {
	SearchRepositories(executionContext context.Context, query SearchQuery) ([]Repository, error)
}

// Service drives repository discovery across configured categories.
type Service struct {
	searcher     RepositorySearcher
	logger       *zap.Logger
	outputWriter io.Writer
	clock        Clock
}

// NewService constructs a discovery Service using the provided collaborators.
func NewService(searcher RepositorySearcher, logger *zap.Logger, outputWriter io.Writer, clock Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		searcher:     searcher,
		logger:       logger,
		outputWriter: outputWriter,
		clock:        clock,
	}
}

// Run discovers repositories for every provided category, excluding
// repositories already recorded in the state. Newly recommended repositories
// are marked in the state; persisting it is the caller's responsibility. A
// failed search degrades to an empty result for that query so one flaky
// category never aborts the run.
func (service *Service) Run(executionContext context.Context, categories []SearchCategory, state *State) (Report, error) {
	report := Report{
		Timestamp: service.clock.Now().UTC().Format(time.RFC3339),
	}

	for _, category := range categories {
		report.CategoriesSearched = append(report.CategoriesSearched, category.Key)

		categoryResult := service.discoverCategory(executionContext, category, state)
		report.Categories = append(report.Categories, categoryResult)
		report.TotalRecommendations += len(categoryResult.Recommendations)
	}

	fmt.Fprintf(service.outputWriter, discoveryCompleteTemplateConstant, report.TotalRecommendations, len(categories))
	return report, nil
}

func (service *Service) discoverCategory(executionContext context.Context, category SearchCategory, state *State) CategoryResult {
	fmt.Fprintf(service.outputWriter, categoryHeadingTemplateConstant, category.Name)

	candidateRepositories := service.collectCandidates(executionContext, category)

	newRepositories := make([]Repository, 0, len(candidateRepositories))
	for _, repository := range candidateRepositories {
		if len(repository.HTMLURL) == 0 || state.Contains(repository.HTMLURL) {
			continue
		}
		newRepositories = append(newRepositories, repository)
	}
	fmt.Fprintf(service.outputWriter, newRepositoriesTemplateConstant, len(newRepositories), len(candidateRepositories))

	if len(newRepositories) == 0 {
		fmt.Fprint(service.outputWriter, noNewRepositoriesMessageConstant)
		return CategoryResult{
			CategoryKey:     category.Key,
			CategoryName:    category.Name,
			DiscoveredCount: len(candidateRepositories),
		}
	}

	sort.SliceStable(newRepositories, func(leftIndex int, rightIndex int) bool {
		return newRepositories[leftIndex].StargazersCount > newRepositories[rightIndex].StargazersCount
	})

	recommendedRepositories := newRepositories
	if len(recommendedRepositories) > category.RecommendationCount {
		recommendedRepositories = recommendedRepositories[:category.RecommendationCount]
	}

	recommendations := make([]Recommendation, 0, len(recommendedRepositories))
	for recommendationIndex, repository := range recommendedRepositories {
		state.MarkProcessed(repository.HTMLURL)
		recommendations = append(recommendations, Recommendation{
			Name:        repository.FullName,
			URL:         repository.HTMLURL,
			Description: repository.Description,
			Stars:       repository.StargazersCount,
			Forks:       repository.ForksCount,
			Language:    repository.Language,
			Topics:      repository.Topics,
			UpdatedAt:   repository.UpdatedAt,
			Homepage:    repository.Homepage,
		})
		fmt.Fprintf(service.outputWriter, recommendationLineTemplateConstant, recommendationIndex+1, repository.FullName, repository.StargazersCount)
	}

	service.logger.Info(
		categoryDiscoveredMessageConstant,
		zap.String(logFieldCategoryConstant, category.Key),
		zap.Int(logFieldDiscoveredCountConstant, len(candidateRepositories)),
		zap.Int(logFieldRecommendationCountConstant, len(recommendations)),
	)

	return CategoryResult{
		CategoryKey:     category.Key,
		CategoryName:    category.Name,
		DiscoveredCount: len(candidateRepositories),
		Recommendations: recommendations,
	}
}

// collectCandidates runs every keyword and language combination for the
// category and deduplicates results by repository URL, keeping first-seen
// order.
func (service *Service) collectCandidates(executionContext context.Context, category SearchCategory) []Repository {
	languages := category.Languages
	if len(languages) == 0 {
		languages = []string{""}
	}

	seenURLs := map[string]struct{}{}
	candidates := []Repository{}

	for _, keyword := range category.Keywords {
		fmt.Fprintf(service.outputWriter, searchingKeywordTemplateConstant, keyword)

		for _, language := range languages {
			repositories, searchError := service.searcher.SearchRepositories(executionContext, SearchQuery{
				Keyword:        keyword,
				MinimumStars:   category.MinimumStars,
				MaximumAgeDays: category.MaximumAgeDays,
				Language:       language,
			})
			if searchError != nil {
				service.logger.Warn(
					searchFailedMessageConstant,
					zap.String(logFieldCategoryConstant, category.Key),
					zap.String(logFieldKeywordConstant, keyword),
					zap.Error(searchError),
				)
				continue
			}

			for _, repository := range repositories {
				if len(repository.HTMLURL) == 0 {
					continue
				}
				if _, alreadySeen := seenURLs[repository.HTMLURL]; alreadySeen {
					continue
				}
				seenURLs[repository.HTMLURL] = struct{}{}
				candidates = append(candidates, repository)
			}
		}
	}

	return candidates
}
