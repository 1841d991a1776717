package utils

import "context"

type contextKey int

const configurationFilePathContextKey contextKey = iota

// WithConfigurationFilePath returns a context carrying the resolved
// configuration file path so subcommands can report which file configured
// their run.
func WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKey, configurationFilePath)
}

// ConfigurationFilePathFromContext extracts the configuration file path
// attached by WithConfigurationFilePath. The second return reports whether a
// path was attached at all.
func ConfigurationFilePathFromContext(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, pathAttached := executionContext.Value(configurationFilePathContextKey).(string)
	return configurationFilePath, pathAttached
}
