package syncer

import "strings"

const (
	defaultSourceLabelConstant    = "awesome-assistants-sync"
	defaultRecoveryPathConstant   = "failed_sync_operations.json"
	defaultTimeoutSecondsConstant = 30
	endpointConfigurationSuffix   = ".endpoint"
	apiTokenConfigurationSuffix   = ".api_token"
	fileConfigurationSuffix       = ".file"
	sourceConfigurationSuffix     = ".source"
	recoveryConfigurationSuffix   = ".recovery_path"
	timeoutConfigurationSuffix    = ".timeout_seconds"
	dryRunConfigurationSuffix     = ".dry_run"
)

// LogServiceConfiguration captures optional settings for shipping run
// summaries to the external log service.
type LogServiceConfiguration struct {
	BaseURL     string `mapstructure:"base_url"`
	ServiceName string `mapstructure:"service_name"`
	APIKey      string `mapstructure:"api_key"`
}

// Enabled reports whether summary shipping is configured.
func (configuration LogServiceConfiguration) Enabled() bool {
	return len(strings.TrimSpace(configuration.BaseURL)) > 0
}

// CommandConfiguration captures persistent settings for the sync command.
type CommandConfiguration struct {
	File           string                  `mapstructure:"file"`
	Endpoint       string                  `mapstructure:"endpoint"`
	APIToken       string                  `mapstructure:"api_token"`
	Source         string                  `mapstructure:"source"`
	RecoveryPath   string                  `mapstructure:"recovery_path"`
	TimeoutSeconds int                     `mapstructure:"timeout_seconds"`
	DryRun         bool                    `mapstructure:"dry_run"`
	LogService     LogServiceConfiguration `mapstructure:"log_service"`
}

// DefaultConfigurationValues returns baseline configuration values registered
// under the provided configuration key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + sourceConfigurationSuffix:   defaultSourceLabelConstant,
		configurationKeyPrefix + recoveryConfigurationSuffix: defaultRecoveryPathConstant,
		configurationKeyPrefix + timeoutConfigurationSuffix:  defaultTimeoutSecondsConstant,
		configurationKeyPrefix + dryRunConfigurationSuffix:   false,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.File = strings.TrimSpace(configuration.File)
	sanitized.Endpoint = strings.TrimSpace(configuration.Endpoint)
	sanitized.APIToken = strings.TrimSpace(configuration.APIToken)

	sanitized.Source = strings.TrimSpace(configuration.Source)
	if len(sanitized.Source) == 0 {
		sanitized.Source = defaultSourceLabelConstant
	}

	sanitized.RecoveryPath = strings.TrimSpace(configuration.RecoveryPath)
	if len(sanitized.RecoveryPath) == 0 {
		sanitized.RecoveryPath = defaultRecoveryPathConstant
	}

	if sanitized.TimeoutSeconds <= 0 {
		sanitized.TimeoutSeconds = defaultTimeoutSecondsConstant
	}

	return sanitized
}
