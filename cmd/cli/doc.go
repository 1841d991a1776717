// Package cli constructs the assistant-sync command-line interface, wiring
// the Cobra command hierarchy, configuration loader, and structured logging
// primitives for the sync and discover workflows.
package cli
