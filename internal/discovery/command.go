package discovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hacolby/assistant-sync/internal/utils"
)

const (
	commandUseConstant              = "discover"
	commandShortDescriptionConstant = "Discover candidate GitHub repositories for the assistants catalog"
	commandLongDescriptionConstant  = "discover searches GitHub for repositories matching the configured categories, " +
		"skips repositories recommended on earlier runs, and writes a per-category " +
		"recommendation report."
	githubTokenFlagNameConstant       = "github-token"
	githubTokenFlagUsageConstant      = "GitHub API token used for repository search."
	statePathFlagNameConstant         = "state-path"
	statePathFlagUsageConstant        = "JSON state file tracking already-recommended repositories."
	outputFlagNameConstant            = "output"
	outputFlagUsageConstant           = "File receiving the discovery report as JSON."
	categoriesFlagNameConstant        = "categories"
	categoriesFlagUsageConstant       = "Comma-separated category keys to search; all categories when empty."
	fallbackTokenEnvironmentName      = "GITHUB_TOKEN"
	unknownCategoryTemplateConstant   = "unknown discovery category %q"
	reportEncodeErrorTemplate         = "unable to encode discovery report: %w"
	reportWriteErrorTemplateConstant  = "unable to write discovery report %s: %w"
	reportSavedTemplateConstant       = "Results saved to: %s\n"
	reportFileModeConstant            = 0o644
	reportDirectoryModeConstant       = 0o755
	categoryListSeparatorConstant     = ","
	configurationFileMessageConstant  = "using configuration file"
	configurationFileFieldConstant    = "configuration_file"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted discover command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the discover cobra command with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Searcher              RepositorySearcher
	Clock                 Clock
}

// Build constructs the cobra command for the discovery workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(githubTokenFlagNameConstant, "", githubTokenFlagUsageConstant)
	command.Flags().String(statePathFlagNameConstant, "", statePathFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().String(categoriesFlagNameConstant, "", categoriesFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	logger := builder.resolveLogger()
	if configurationFilePath, pathAttached := utils.ConfigurationFilePathFromContext(command.Context()); pathAttached && configurationFilePath != "" {
		logger.Debug(configurationFileMessageConstant, zap.String(configurationFileFieldConstant, configurationFilePath))
	}
	clock := builder.resolveClock()

	selectedCategories, selectionError := selectCategories(configuration.Categories, categoryFilter(command))
	if selectionError != nil {
		return selectionError
	}

	searcher := builder.Searcher
	if searcher == nil {
		httpClient := &http.Client{Timeout: time.Duration(configuration.TimeoutSeconds) * time.Second}
		searchClient, searchClientError := NewSearchClient(httpClient, "", configuration.GitHubToken, clock)
		if searchClientError != nil {
			return searchClientError
		}
		searcher = searchClient
	}

	state, stateError := LoadState(configuration.StatePath)
	if stateError != nil {
		return stateError
	}

	service := NewService(searcher, logger, command.OutOrStdout(), clock)
	report, runError := service.Run(command.Context(), selectedCategories, &state)
	if runError != nil {
		return runError
	}

	if saveError := SaveState(configuration.StatePath, state, clock); saveError != nil {
		return saveError
	}
	if writeError := writeReport(configuration.OutputPath, report); writeError != nil {
		return writeError
	}

	fmt.Fprintf(command.OutOrStdout(), reportSavedTemplateConstant, configuration.OutputPath)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := CommandConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if tokenFlagValue, _ := command.Flags().GetString(githubTokenFlagNameConstant); command.Flags().Changed(githubTokenFlagNameConstant) {
		configuration.GitHubToken = tokenFlagValue
	}
	if statePathFlagValue, _ := command.Flags().GetString(statePathFlagNameConstant); command.Flags().Changed(statePathFlagNameConstant) {
		configuration.StatePath = statePathFlagValue
	}
	if outputFlagValue, _ := command.Flags().GetString(outputFlagNameConstant); command.Flags().Changed(outputFlagNameConstant) {
		configuration.OutputPath = outputFlagValue
	}

	configuration = configuration.sanitize()

	if len(configuration.GitHubToken) == 0 {
		configuration.GitHubToken = os.Getenv(fallbackTokenEnvironmentName)
	}

	return configuration
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveClock() Clock {
	if builder.Clock == nil {
		return SystemClock{}
	}
	return builder.Clock
}

func categoryFilter(command *cobra.Command) []string {
	categoriesFlagValue, _ := command.Flags().GetString(categoriesFlagNameConstant)
	if len(strings.TrimSpace(categoriesFlagValue)) == 0 {
		return nil
	}

	categoryKeys := []string{}
	for _, categoryKey := range strings.Split(categoriesFlagValue, categoryListSeparatorConstant) {
		trimmedKey := strings.TrimSpace(categoryKey)
		if len(trimmedKey) > 0 {
			categoryKeys = append(categoryKeys, trimmedKey)
		}
	}
	return categoryKeys
}

// selectCategories narrows the configured categories to the requested keys.
// An empty filter selects every configured category; an unknown key is an
// error rather than a silent no-op.
func selectCategories(configuredCategories []SearchCategory, categoryKeys []string) ([]SearchCategory, error) {
	if len(categoryKeys) == 0 {
		return configuredCategories, nil
	}

	categoriesByKey := make(map[string]SearchCategory, len(configuredCategories))
	for _, category := range configuredCategories {
		categoriesByKey[category.Key] = category
	}

	selectedCategories := make([]SearchCategory, 0, len(categoryKeys))
	for _, categoryKey := range categoryKeys {
		category, categoryKnown := categoriesByKey[categoryKey]
		if !categoryKnown {
			return nil, fmt.Errorf(unknownCategoryTemplateConstant, categoryKey)
		}
		selectedCategories = append(selectedCategories, category)
	}

	return selectedCategories, nil
}

func writeReport(outputPath string, report Report) error {
	encodedReport, encodeError := json.MarshalIndent(report, "", "  ")
	if encodeError != nil {
		return fmt.Errorf(reportEncodeErrorTemplate, encodeError)
	}

	if parentDirectory := filepath.Dir(outputPath); parentDirectory != "." {
		if directoryError := os.MkdirAll(parentDirectory, reportDirectoryModeConstant); directoryError != nil {
			return fmt.Errorf(reportWriteErrorTemplateConstant, outputPath, directoryError)
		}
	}

	if writeError := os.WriteFile(outputPath, encodedReport, reportFileModeConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, outputPath, writeError)
	}

	return nil
}
