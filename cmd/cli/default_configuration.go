package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the baked-in YAML defaults
// together with the configuration type identifier. The defaults seed the sync
// catalog path, source tag, recovery path, and request timeout as well as the
// discover state and report paths, so the binary runs without an on-disk
// configuration file.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), configurationTypeConstant
}
