// Package logtail provides a client for the worker-hosted log service.
//
// Log ingestion endpoints are public and carry no credentials; the search
// endpoint is secured and requires the configured API key. The sync command
// uses this client to ship run summaries as structured log entries.
package logtail
