package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	stateFileModeConstant            = 0o644
	stateDirectoryModeConstant       = 0o755
	stateReadErrorTemplateConstant   = "unable to read discovery state %s: %w"
	stateDecodeErrorTemplateConstant = "unable to decode discovery state %s: %w"
	stateEncodeErrorTemplate         = "unable to encode discovery state: %w"
	stateWriteErrorTemplateConstant  = "unable to write discovery state %s: %w"
)

// State tracks repositories recommended on earlier discovery runs so they are
// not recommended again. It is loaded, threaded through a run, and saved
// explicitly by the caller.
type State struct {
	processedRepositories map[string]struct{}
}

type stateDocument struct {
	ProcessedRepositories []string `json:"processed_repos"`
	LastUpdated           string   `json:"last_updated"`
}

// NewState returns an empty processed-repository state.
func NewState() State {
	return State{processedRepositories: map[string]struct{}{}}
}

// Contains reports whether the repository URL was already processed.
func (state State) Contains(repositoryURL string) bool {
	_, processed := state.processedRepositories[repositoryURL]
	return processed
}

// MarkProcessed records the repository URL as processed.
func (state *State) MarkProcessed(repositoryURL string) {
	if state.processedRepositories == nil {
		state.processedRepositories = map[string]struct{}{}
	}
	state.processedRepositories[repositoryURL] = struct{}{}
}

// ProcessedCount returns the number of processed repositories.
func (state State) ProcessedCount() int {
	return len(state.processedRepositories)
}

// LoadState reads the state file at the provided path. A missing file yields
// an empty state so first runs need no setup.
func LoadState(statePath string) (State, error) {
	stateContents, readError := os.ReadFile(statePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return NewState(), nil
		}
		return State{}, fmt.Errorf(stateReadErrorTemplateConstant, statePath, readError)
	}

	document := stateDocument{}
	if decodeError := json.Unmarshal(stateContents, &document); decodeError != nil {
		return State{}, fmt.Errorf(stateDecodeErrorTemplateConstant, statePath, decodeError)
	}

	state := NewState()
	for _, repositoryURL := range document.ProcessedRepositories {
		state.MarkProcessed(repositoryURL)
	}
	return state, nil
}

// SaveState writes the state to the provided path, stamping the update time
// from the clock. Repository URLs are sorted so the file diffs cleanly under
// version control.
func SaveState(statePath string, state State, clock Clock) error {
	if clock == nil {
		clock = SystemClock{}
	}

	repositoryURLs := make([]string, 0, len(state.processedRepositories))
	for repositoryURL := range state.processedRepositories {
		repositoryURLs = append(repositoryURLs, repositoryURL)
	}
	sort.Strings(repositoryURLs)

	document := stateDocument{
		ProcessedRepositories: repositoryURLs,
		LastUpdated:           clock.Now().UTC().Format(time.RFC3339),
	}

	encodedDocument, encodeError := json.MarshalIndent(document, "", "  ")
	if encodeError != nil {
		return fmt.Errorf(stateEncodeErrorTemplate, encodeError)
	}

	if parentDirectory := filepath.Dir(statePath); parentDirectory != "." {
		if directoryError := os.MkdirAll(parentDirectory, stateDirectoryModeConstant); directoryError != nil {
			return fmt.Errorf(stateWriteErrorTemplateConstant, statePath, directoryError)
		}
	}

	if writeError := os.WriteFile(statePath, encodedDocument, stateFileModeConstant); writeError != nil {
		return fmt.Errorf(stateWriteErrorTemplateConstant, statePath, writeError)
	}

	return nil
}
