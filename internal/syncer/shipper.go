package syncer

import (
	"context"

	"github.com/hacolby/assistant-sync/internal/logtail"
)

const (
	summaryShippedMessageConstant      = "assistant sync run summary"
	summaryRunIdentifierFieldConstant  = "runId"
	summaryNewCountFieldConstant       = "new"
	summaryUpdatedCountFieldConstant   = "updated"
	summaryDeletedCountFieldConstant   = "deleted"
	summaryUnchangedCountFieldConstant = "unchanged"
	summaryQuarantinedFieldConstant    = "quarantined"
	summaryOperationCountFieldConstant = "operations"
	summarySyncedFieldConstant         = "synced"
	summaryDryRunFieldConstant         = "dryRun"
	summaryRecoveryPathFieldConstant   = "recoveryArtifact"
)

// LogtailSummaryShipper forwards run summaries to the log service as
// structured entries.
type LogtailSummaryShipper struct {
	client *logtail.Client
}

// NewLogtailSummaryShipper constructs a shipper backed by the provided client.
func NewLogtailSummaryShipper(client *logtail.Client) *LogtailSummaryShipper {
	return &LogtailSummaryShipper{client: client}
}

// ShipRunSummary publishes one run summary. Failed syncs ship as errors so the
// log service surfaces them for follow-up.
func (shipper *LogtailSummaryShipper) ShipRunSummary(executionContext context.Context, summary RunSummary) error {
	contextFields := map[string]any{
		summaryRunIdentifierFieldConstant:  summary.RunIdentifier,
		summaryNewCountFieldConstant:       summary.NewCount,
		summaryUpdatedCountFieldConstant:   summary.UpdatedCount,
		summaryDeletedCountFieldConstant:   summary.DeletedCount,
		summaryUnchangedCountFieldConstant: summary.UnchangedCount,
		summaryQuarantinedFieldConstant:    summary.QuarantinedCount,
		summaryOperationCountFieldConstant: summary.OperationCount,
		summarySyncedFieldConstant:         summary.Synced,
		summaryDryRunFieldConstant:         summary.DryRun,
	}
	if len(summary.RecoveryArtifactPath) > 0 {
		contextFields[summaryRecoveryPathFieldConstant] = summary.RecoveryArtifactPath
	}

	if !summary.Synced && !summary.DryRun {
		return shipper.client.Error(executionContext, summaryShippedMessageConstant, contextFields)
	}
	return shipper.client.Info(executionContext, summaryShippedMessageConstant, contextFields)
}
