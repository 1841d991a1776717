// Package workerapi provides the HTTP client for the worker-backed assistant
// store.
//
// It exposes Client for reading the persisted assistant collection and
// submitting mutation batches, together with typed errors describing
// transport, status, and codec failures per operation.
package workerapi
