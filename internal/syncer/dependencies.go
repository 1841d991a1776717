package syncer

import (
	"context"

	"github.com/hacolby/assistant-sync/internal/assistants"
	"github.com/hacolby/assistant-sync/internal/workerapi"
)

// CatalogLoader reads the declared assistant records from the catalog file.
type CatalogLoader interface {
	LoadRecords(catalogPath string) ([]assistants.Record, error)
}

// RemoteFetcher retrieves the persisted assistant collection from the store.
type RemoteFetcher interface {
	FetchRecords(executionContext context.Context) ([]assistants.Record, error)
}

// BatchSubmitter posts a mutation batch to the store's write endpoint.
type BatchSubmitter interface {
	SubmitBatch(executionContext context.Context, batchRequest workerapi.BatchRequest) (workerapi.BatchAcknowledgement, error)
}

// RecoverySink persists a failed batch payload for manual inspection and
// replay. It returns the location of the persisted artifact.
type RecoverySink interface {
	PersistFailedBatch(batchRequest workerapi.BatchRequest) (string, error)
}

// SummaryShipper forwards run summaries to an external log service. Shipping
// failures never fail the run.
type SummaryShipper interface {
	ShipRunSummary(executionContext context.Context, summary RunSummary) error
}
