package assistants

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	catalogReadErrorTemplateConstant  = "unable to read assistants catalog %s: %w"
	catalogParseErrorTemplateConstant = "unable to parse assistants catalog %s: %w"
)

// CatalogDocument mirrors the declared-state file layout: a document with a
// top-level assistants list.
type CatalogDocument struct {
	Assistants []Record `yaml:"assistants"`
}

// CatalogLoadError reports a missing or malformed declared-state catalog.
// It aborts a sync run before any remote call is attempted.
type CatalogLoadError struct {
	Path  string
	Cause error
}

// Error describes the catalog failure.
func (loadError CatalogLoadError) Error() string {
	return loadError.Cause.Error()
}

// Unwrap exposes the underlying read or parse error.
func (loadError CatalogLoadError) Unwrap() error {
	return loadError.Cause
}

// CatalogLoader reads declared assistant records from YAML files.
type CatalogLoader struct{}

// NewCatalogLoader constructs a CatalogLoader instance.
func NewCatalogLoader() CatalogLoader {
	return CatalogLoader{}
}

// LoadRecords parses the catalog at the provided path and returns its declared
// records in declaration order.
func (loader CatalogLoader) LoadRecords(catalogPath string) ([]Record, error) {
	catalogData, readError := os.ReadFile(catalogPath)
	if readError != nil {
		return nil, CatalogLoadError{Path: catalogPath, Cause: fmt.Errorf(catalogReadErrorTemplateConstant, catalogPath, readError)}
	}

	document := CatalogDocument{}
	if parseError := yaml.Unmarshal(catalogData, &document); parseError != nil {
		return nil, CatalogLoadError{Path: catalogPath, Cause: fmt.Errorf(catalogParseErrorTemplateConstant, catalogPath, parseError)}
	}

	return document.Assistants, nil
}

// UnmarshalYAML decodes the record from an arbitrary YAML mapping, retaining
// unrecognized fields the same way the JSON codec does.
func (record *Record) UnmarshalYAML(value *yaml.Node) error {
	payload := map[string]any{}
	if decodeError := value.Decode(&payload); decodeError != nil {
		return decodeError
	}

	*record = RecordFromPayload(payload)
	return nil
}
