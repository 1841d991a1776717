package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant          = "."
	environmentKeySeparatorNewConstant          = "_"
	configurationReadErrorTemplateConstant      = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant = "failed to parse configuration: %w"
	embeddedDefaultsMergeErrorTemplateConstant  = "failed to merge embedded defaults: %w"
)

// ConfigurationLoader resolves structured configuration from embedded defaults,
// configuration files discovered on the search paths, and environment variables
// carrying the configured prefix. The zero value is unusable; populate the
// exported fields before calling LoadConfiguration.
type ConfigurationLoader struct {
	// ConfigurationName is the base name of configuration files discovered on the search paths.
	ConfigurationName string
	// ConfigurationType identifies the configuration encoding, typically "yaml".
	ConfigurationType string
	// EnvironmentPrefix namespaces environment variable overrides.
	EnvironmentPrefix string
	// SearchPaths lists directories inspected for configuration files.
	SearchPaths []string
	// EmbeddedDefaults optionally carries baseline configuration merged before any file.
	EmbeddedDefaults []byte
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// LoadConfiguration populates targetConfiguration from embedded defaults, an
// optional explicit configuration file, discovered configuration files, default
// values, and environment variables, in ascending precedence.
func (loader ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.ConfigurationName)
	viperInstance.SetConfigType(loader.ConfigurationType)

	if len(loader.EmbeddedDefaults) > 0 {
		mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.EmbeddedDefaults))
		if mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedDefaultsMergeErrorTemplateConstant, mergeError)
		}
	}

	for _, searchPath := range loader.SearchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.EnvironmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant))
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError != nil {
		if _, isNotFound := readError.(viper.ConfigFileNotFoundError); !isNotFound {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	unmarshalError := viperInstance.Unmarshal(targetConfiguration)
	if unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
