// Package syncer implements the reconciliation engine that brings the remote
// assistant store in line with the declared catalog.
//
// The pipeline runs load, fetch, diff, plan, and execute as one synchronous
// sequence. Diff partitions records into new, updated, deleted, and unchanged
// classes using identity keys and content fingerprints. The planner turns a
// diff outcome into an ordered batch of mutation operations modeling an
// append-only version chain, and the executor submits the batch in one
// request, spilling failed payloads to a recovery artifact.
//
// CommandBuilder wires the sync Cobra command; Service drives the workflow
// programmatically.
package syncer
