package discovery_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hacolby/assistant-sync/internal/discovery"
	"github.com/hacolby/assistant-sync/internal/utils"
)

func TestDiscoverCommand(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedError   string
		expectedQueries int
	}{
		{
			name:            "runs_all_configured_categories",
			arguments:       []string{},
			expectedQueries: 2,
		},
		{
			name:            "filters_categories_by_key",
			arguments:       []string{"--categories", "second"},
			expectedQueries: 1,
		},
		{
			name:          "rejects_unknown_category_key",
			arguments:     []string{"--categories", "missing"},
			expectedError: "unknown discovery category",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			temporaryDirectory := subtestInstance.TempDir()
			statePath := filepath.Join(temporaryDirectory, "processed-repos.json")
			outputPath := filepath.Join(temporaryDirectory, "discovery-results.json")

			searcher := &stubSearcher{
				repositoriesByKeyword: map[string][]discovery.Repository{
					"first keyword":  {repositoryFixture("example/first", 100)},
					"second keyword": {repositoryFixture("example/second", 200)},
				},
			}

			builder := &discovery.CommandBuilder{
				ConfigurationProvider: func() discovery.CommandConfiguration {
					return discovery.CommandConfiguration{
						StatePath:  statePath,
						OutputPath: outputPath,
						Categories: []discovery.SearchCategory{
							{Key: "first", Name: "First", Keywords: []string{"first keyword"}},
							{Key: "second", Name: "Second", Keywords: []string{"second keyword"}},
						},
					}
				},
				Searcher: searcher,
				Clock:    discoveryClock(),
			}

			command, buildError := builder.Build()
			require.NoError(subtestInstance, buildError)

			command.SetOut(&bytes.Buffer{})
			command.SetErr(&bytes.Buffer{})
			command.SetArgs(testCase.arguments)
			command.SetContext(context.Background())

			executionError := command.Execute()
			if len(testCase.expectedError) > 0 {
				require.Error(subtestInstance, executionError)
				require.Contains(subtestInstance, executionError.Error(), testCase.expectedError)
				return
			}

			require.NoError(subtestInstance, executionError)
			require.Len(subtestInstance, searcher.receivedQueries, testCase.expectedQueries)

			savedState, stateLoadError := discovery.LoadState(statePath)
			require.NoError(subtestInstance, stateLoadError)
			require.Equal(subtestInstance, testCase.expectedQueries, savedState.ProcessedCount())

			reportContents, readError := os.ReadFile(outputPath)
			require.NoError(subtestInstance, readError)

			report := discovery.Report{}
			require.NoError(subtestInstance, json.Unmarshal(reportContents, &report))
			require.Equal(subtestInstance, testCase.expectedQueries, report.TotalRecommendations)
		})
	}
}

func TestDiscoverCommandLogsConfigurationFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	statePath := filepath.Join(temporaryDirectory, "processed-repos.json")
	outputPath := filepath.Join(temporaryDirectory, "discovery-results.json")

	observedCore, observedLogs := observer.New(zapcore.DebugLevel)

	builder := &discovery.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.New(observedCore) },
		ConfigurationProvider: func() discovery.CommandConfiguration {
			return discovery.CommandConfiguration{
				StatePath:  statePath,
				OutputPath: outputPath,
				Categories: []discovery.SearchCategory{
					{Key: "first", Name: "First", Keywords: []string{"first keyword"}},
				},
			}
		},
		Searcher: &stubSearcher{
			repositoriesByKeyword: map[string][]discovery.Repository{
				"first keyword": {repositoryFixture("example/first", 100)},
			},
		},
		Clock: discoveryClock(),
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{})
	command.SetContext(utils.WithConfigurationFilePath(context.Background(), "/etc/assistant-sync/config.yaml"))

	require.NoError(testInstance, command.Execute())

	loggedEntries := observedLogs.FilterMessage("using configuration file").All()
	require.Len(testInstance, loggedEntries, 1)
	require.Equal(testInstance, "/etc/assistant-sync/config.yaml", loggedEntries[0].ContextMap()["configuration_file"])
}
