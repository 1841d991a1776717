package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hacolby/assistant-sync/internal/utils"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"common"`
	Tools struct {
		Sync struct {
			Endpoint string `mapstructure:"endpoint"`
			Source   string `mapstructure:"source"`
		} `mapstructure:"sync"`
	} `mapstructure:"tools"`
}

func TestLoadConfigurationPrecedence(testInstance *testing.T) {
	embeddedDefaults := []byte("common:\n  log_level: info\n  log_format: structured\ntools:\n  sync:\n    source: embedded-source\n")
	configurationFileContents := "common:\n  log_level: debug\ntools:\n  sync:\n    endpoint: https://store.example.com\n"

	testCases := []struct {
		name                 string
		configurationFile    bool
		environmentVariables map[string]string
		expectedLogLevel     string
		expectedEndpoint     string
		expectedSource       string
	}{
		{
			name:             "embedded_defaults_alone",
			expectedLogLevel: "info",
			expectedSource:   "embedded-source",
		},
		{
			name:              "configuration_file_overrides_embedded_defaults",
			configurationFile: true,
			expectedLogLevel:  "debug",
			expectedEndpoint:  "https://store.example.com",
			expectedSource:    "embedded-source",
		},
		{
			name:              "environment_overrides_configuration_file",
			configurationFile: true,
			environmentVariables: map[string]string{
				"ASSISTANTSYNC_TOOLS_SYNC_SOURCE": "environment-source",
			},
			expectedLogLevel: "debug",
			expectedEndpoint: "https://store.example.com",
			expectedSource:   "environment-source",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			for variableName, variableValue := range testCase.environmentVariables {
				subtestInstance.Setenv(variableName, variableValue)
			}

			configurationFilePath := ""
			if testCase.configurationFile {
				configurationFilePath = filepath.Join(subtestInstance.TempDir(), "config.yaml")
				require.NoError(subtestInstance, os.WriteFile(configurationFilePath, []byte(configurationFileContents), 0o644))
			}

			loader := utils.ConfigurationLoader{
				ConfigurationName: "config",
				ConfigurationType: "yaml",
				EnvironmentPrefix: "ASSISTANTSYNC",
				EmbeddedDefaults:  embeddedDefaults,
			}

			configuration := loaderTestConfiguration{}
			loadedConfiguration, loadError := loader.LoadConfiguration(configurationFilePath, nil, &configuration)
			require.NoError(subtestInstance, loadError)

			require.Equal(subtestInstance, testCase.expectedLogLevel, configuration.Common.LogLevel)
			require.Equal(subtestInstance, testCase.expectedEndpoint, configuration.Tools.Sync.Endpoint)
			require.Equal(subtestInstance, testCase.expectedSource, configuration.Tools.Sync.Source)

			if testCase.configurationFile {
				require.Equal(subtestInstance, configurationFilePath, loadedConfiguration.ConfigFileUsed)
			}
		})
	}
}

func TestLoadConfigurationAppliesDefaultValues(testInstance *testing.T) {
	loader := utils.ConfigurationLoader{
		ConfigurationName: "config",
		ConfigurationType: "yaml",
		EnvironmentPrefix: "ASSISTANTSYNC",
	}

	configuration := loaderTestConfiguration{}
	_, loadError := loader.LoadConfiguration("", map[string]any{
		"tools.sync.source": "default-source",
	}, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "default-source", configuration.Tools.Sync.Source)
}

func TestLoadConfigurationRejectsMalformedFile(testInstance *testing.T) {
	configurationFilePath := filepath.Join(testInstance.TempDir(), "config.yaml")
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("common: [unbalanced"), 0o644))

	loader := utils.ConfigurationLoader{
		ConfigurationName: "config",
		ConfigurationType: "yaml",
		EnvironmentPrefix: "ASSISTANTSYNC",
	}

	configuration := loaderTestConfiguration{}
	_, loadError := loader.LoadConfiguration(configurationFilePath, nil, &configuration)
	require.Error(testInstance, loadError)
}
