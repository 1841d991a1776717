package discovery

import "strings"

const (
	defaultStatePathConstant           = ".github/discovery-state/processed-repos.json"
	defaultOutputPathConstant          = "discovery-results.json"
	defaultTimeoutSecondsConstant      = 30
	defaultMinimumStarsConstant        = 50
	defaultMaximumAgeDaysConstant      = 365
	defaultRecommendationCountConstant = 5
	statePathConfigurationSuffix       = ".state_path"
	outputPathConfigurationSuffix      = ".output_path"
	timeoutConfigurationSuffix         = ".timeout_seconds"
)

// SearchCategory describes one discovery category: the keyword queries to run
// and the qualifiers narrowing their results.
type SearchCategory struct {
	Key                 string   `mapstructure:"key"`
	Name                string   `mapstructure:"name"`
	Keywords            []string `mapstructure:"keywords"`
	Languages           []string `mapstructure:"languages"`
	MinimumStars        int      `mapstructure:"minimum_stars"`
	MaximumAgeDays      int      `mapstructure:"maximum_age_days"`
	RecommendationCount int      `mapstructure:"recommendation_count"`
}

func (category SearchCategory) sanitize() SearchCategory {
	sanitized := category
	if sanitized.MinimumStars <= 0 {
		sanitized.MinimumStars = defaultMinimumStarsConstant
	}
	if sanitized.MaximumAgeDays <= 0 {
		sanitized.MaximumAgeDays = defaultMaximumAgeDaysConstant
	}
	if sanitized.RecommendationCount <= 0 {
		sanitized.RecommendationCount = defaultRecommendationCountConstant
	}
	return sanitized
}

// CommandConfiguration captures persistent settings for the discover command.
type CommandConfiguration struct {
	GitHubToken    string           `mapstructure:"github_token"`
	StatePath      string           `mapstructure:"state_path"`
	OutputPath     string           `mapstructure:"output_path"`
	TimeoutSeconds int              `mapstructure:"timeout_seconds"`
	Categories     []SearchCategory `mapstructure:"categories"`
}

// DefaultConfigurationValues returns baseline configuration values registered
// under the provided configuration key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + statePathConfigurationSuffix:  defaultStatePathConstant,
		configurationKeyPrefix + outputPathConfigurationSuffix: defaultOutputPathConstant,
		configurationKeyPrefix + timeoutConfigurationSuffix:    defaultTimeoutSecondsConstant,
	}
}

// DefaultSearchCategories returns the built-in category set used when the
// configuration declares none.
func DefaultSearchCategories() []SearchCategory {
	return []SearchCategory{
		{
			Key:  "cloudflare-worker-agentic",
			Name: "Cloudflare Worker Agentic Apps",
			Keywords: []string{
				"cloudflare workers ai agent",
				"cloudflare workers llm",
				"cloudflare workers autonomous",
				"cloudflare ai gateway agent",
				"workers ai assistant",
			},
			Languages:      []string{"javascript", "typescript"},
			MinimumStars:   20,
			MaximumAgeDays: 730,
		},
		{
			Key:  "cloudflare-worker-react",
			Name: "Cloudflare Worker React Frontends",
			Keywords: []string{
				"cloudflare workers react",
				"cloudflare pages react",
				"workers react framework",
				"cloudflare react ssr",
				"remix cloudflare",
			},
			Languages:      []string{"javascript", "typescript"},
			MinimumStars:   30,
			MaximumAgeDays: 730,
		},
		{
			Key:  "python-agentic",
			Name: "Python Agentic Apps",
			Keywords: []string{
				"python ai agent framework",
				"python autonomous agent",
				"python llm agent",
				"langchain agent",
				"autogen agent python",
				"crewai python",
			},
			Languages:      []string{"python"},
			MinimumStars:   100,
			MaximumAgeDays: 365,
		},
		{
			Key:  "typescript-libraries",
			Name: "TypeScript Libraries",
			Keywords: []string{
				"typescript utility library",
				"typescript framework",
				"typescript tools",
				"typescript sdk",
				"typescript api client",
			},
			Languages:      []string{"typescript"},
			MinimumStars:   200,
			MaximumAgeDays: 730,
		},
		{
			Key:  "python-libraries",
			Name: "Python Libraries",
			Keywords: []string{
				"python utility library",
				"python framework",
				"python tools",
				"python sdk",
				"python api client",
			},
			Languages:      []string{"python"},
			MinimumStars:   200,
			MaximumAgeDays: 730,
		},
		{
			Key:  "ai-development-tools",
			Name: "AI Development Tools",
			Keywords: []string{
				"ai development tools",
				"llm development toolkit",
				"prompt engineering tools",
				"ai agent builder",
				"llm observability",
			},
			MinimumStars:   100,
			MaximumAgeDays: 365,
		},
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.GitHubToken = strings.TrimSpace(configuration.GitHubToken)

	sanitized.StatePath = strings.TrimSpace(configuration.StatePath)
	if len(sanitized.StatePath) == 0 {
		sanitized.StatePath = defaultStatePathConstant
	}

	sanitized.OutputPath = strings.TrimSpace(configuration.OutputPath)
	if len(sanitized.OutputPath) == 0 {
		sanitized.OutputPath = defaultOutputPathConstant
	}

	if sanitized.TimeoutSeconds <= 0 {
		sanitized.TimeoutSeconds = defaultTimeoutSecondsConstant
	}

	if len(sanitized.Categories) == 0 {
		sanitized.Categories = DefaultSearchCategories()
	}
	for categoryIndex := range sanitized.Categories {
		sanitized.Categories[categoryIndex] = sanitized.Categories[categoryIndex].sanitize()
	}

	return sanitized
}
