package syncer

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hacolby/assistant-sync/internal/assistants"
	"github.com/hacolby/assistant-sync/internal/logtail"
	"github.com/hacolby/assistant-sync/internal/utils"
	"github.com/hacolby/assistant-sync/internal/workerapi"
)

const (
	commandUseConstant              = "sync"
	commandShortDescriptionConstant = "Reconcile the declared assistants catalog with the worker store"
	commandLongDescriptionConstant  = "sync loads assistant records from a YAML catalog, compares them against the " +
		"worker store using identity keys and content fingerprints, and submits the minimal " +
		"versioned batch of insert, deactivate, and soft-delete operations."
	fileFlagNameConstant             = "file"
	fileFlagUsageConstant            = "Path to the assistants YAML catalog."
	endpointFlagNameConstant         = "endpoint"
	endpointFlagUsageConstant        = "Worker store endpoint URL."
	apiTokenFlagNameConstant         = "api-token"
	apiTokenFlagUsageConstant        = "Bearer token for the worker store write path."
	sourceFlagNameConstant           = "source"
	sourceFlagUsageConstant          = "Source identifier tagged onto batch submissions."
	recoveryPathFlagNameConstant     = "recovery-path"
	recoveryPathFlagUsageConstant    = "Local file receiving failed batch payloads for manual replay."
	dryRunFlagNameConstant           = "dry-run"
	dryRunFlagUsageConstant          = "Detect changes and build the plan without submitting it."
	missingCatalogMessageConstant    = "assistants catalog file not configured"
	missingEndpointMessageConstant   = "worker store endpoint not configured"
	fallbackAPITokenEnvironmentName  = "CLOUDFLARE_API_TOKEN"
	defaultLogServiceNameConstant    = "assistant-sync"
	configurationFileMessageConstant = "using configuration file"
	configurationFileFieldConstant   = "configuration_file"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted sync command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the sync cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	CatalogLoader         CatalogLoader
	RemoteFetcher         RemoteFetcher
	BatchSubmitter        BatchSubmitter
	RecoverySink          RecoverySink
	SummaryShipper        SummaryShipper
	Clock                 Clock
}

// Build constructs the cobra command for the sync workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(fileFlagNameConstant, "", fileFlagUsageConstant)
	command.Flags().String(endpointFlagNameConstant, "", endpointFlagUsageConstant)
	command.Flags().String(apiTokenFlagNameConstant, "", apiTokenFlagUsageConstant)
	command.Flags().String(sourceFlagNameConstant, "", sourceFlagUsageConstant)
	command.Flags().String(recoveryPathFlagNameConstant, "", recoveryPathFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	logger := builder.resolveLogger()
	if configurationFilePath, pathAttached := utils.ConfigurationFilePathFromContext(command.Context()); pathAttached && configurationFilePath != "" {
		logger.Debug(configurationFileMessageConstant, zap.String(configurationFileFieldConstant, configurationFilePath))
	}
	clock := builder.resolveClock()

	storeClient, clientError := builder.resolveStoreClient(configuration)
	if clientError != nil {
		return clientError
	}

	catalogLoader := builder.CatalogLoader
	if catalogLoader == nil {
		catalogLoader = assistants.NewCatalogLoader()
	}

	remoteFetcher := builder.RemoteFetcher
	if remoteFetcher == nil {
		remoteFetcher = storeClient
	}

	batchSubmitter := builder.BatchSubmitter
	if batchSubmitter == nil {
		batchSubmitter = storeClient
	}

	recoverySink := builder.RecoverySink
	if recoverySink == nil {
		recoverySink = FileRecoverySink{Path: configuration.RecoveryPath}
	}

	summaryShipper := builder.resolveSummaryShipper(configuration, logger)

	executor := NewExecutor(batchSubmitter, recoverySink, configuration.Source, logger, clock)
	service := NewService(catalogLoader, remoteFetcher, NewPlanner(clock), executor, summaryShipper, logger, command.OutOrStdout())

	options := RunOptions{
		CatalogPath: configuration.File,
		DryRun:      configuration.DryRun,
	}

	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := CommandConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if fileFlagValue, _ := command.Flags().GetString(fileFlagNameConstant); command.Flags().Changed(fileFlagNameConstant) {
		configuration.File = fileFlagValue
	}
	if endpointFlagValue, _ := command.Flags().GetString(endpointFlagNameConstant); command.Flags().Changed(endpointFlagNameConstant) {
		configuration.Endpoint = endpointFlagValue
	}
	if apiTokenFlagValue, _ := command.Flags().GetString(apiTokenFlagNameConstant); command.Flags().Changed(apiTokenFlagNameConstant) {
		configuration.APIToken = apiTokenFlagValue
	}
	if sourceFlagValue, _ := command.Flags().GetString(sourceFlagNameConstant); command.Flags().Changed(sourceFlagNameConstant) {
		configuration.Source = sourceFlagValue
	}
	if recoveryFlagValue, _ := command.Flags().GetString(recoveryPathFlagNameConstant); command.Flags().Changed(recoveryPathFlagNameConstant) {
		configuration.RecoveryPath = recoveryFlagValue
	}
	if dryRunFlagValue, _ := command.Flags().GetBool(dryRunFlagNameConstant); command.Flags().Changed(dryRunFlagNameConstant) {
		configuration.DryRun = dryRunFlagValue
	}

	configuration = configuration.sanitize()

	if len(configuration.APIToken) == 0 {
		configuration.APIToken = os.Getenv(fallbackAPITokenEnvironmentName)
	}

	if len(configuration.File) == 0 {
		return CommandConfiguration{}, errors.New(missingCatalogMessageConstant)
	}
	if len(configuration.Endpoint) == 0 {
		return CommandConfiguration{}, errors.New(missingEndpointMessageConstant)
	}

	return configuration, nil
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

func (builder *CommandBuilder) resolveStoreClient(configuration CommandConfiguration) (*workerapi.Client, error) {
	if builder.RemoteFetcher != nil && builder.BatchSubmitter != nil {
		return nil, nil
	}

	httpClient := &http.Client{Timeout: time.Duration(configuration.TimeoutSeconds) * time.Second}
	return workerapi.NewClient(httpClient, configuration.Endpoint, configuration.APIToken)
}

func (builder *CommandBuilder) resolveSummaryShipper(configuration CommandConfiguration, logger *zap.Logger) SummaryShipper {
	if builder.SummaryShipper != nil {
		return builder.SummaryShipper
	}
	if !configuration.LogService.Enabled() {
		return nil
	}

	serviceName := configuration.LogService.ServiceName
	if len(serviceName) == 0 {
		serviceName = defaultLogServiceNameConstant
	}

	httpClient := &http.Client{Timeout: time.Duration(configuration.TimeoutSeconds) * time.Second}
	logClient, logClientError := logtail.NewClient(httpClient, configuration.LogService.BaseURL, serviceName, configuration.LogService.APIKey)
	if logClientError != nil {
		logger.Warn(summaryShippingFailedMessage, zap.Error(logClientError))
		return nil
	}
	return NewLogtailSummaryShipper(logClient)
}
