// Package assistants models the assistant records exchanged between the
// declared-state catalog and the remote worker store.
//
// It exposes the Record type with identity and liveness semantics, the
// content fingerprint used for change detection, and the YAML loader that
// reads the declared catalog.
package assistants
