package syncer_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hacolby/assistant-sync/internal/assistants"
	"github.com/hacolby/assistant-sync/internal/syncer"
)

type stubCatalogLoader struct {
	records   []assistants.Record
	loadError error
}

func (loader stubCatalogLoader) LoadRecords(string) ([]assistants.Record, error) {
	return loader.records, loader.loadError
}

type stubRemoteFetcher struct {
	records    []assistants.Record
	fetchError error
	callCount  int
}

func (fetcher *stubRemoteFetcher) FetchRecords(context.Context) ([]assistants.Record, error) {
	fetcher.callCount++
	return fetcher.records, fetcher.fetchError
}

type stubPlanExecutor struct {
	executedPlans  []syncer.Plan
	executionError error
}

func (executor *stubPlanExecutor) Execute(_ context.Context, plan syncer.Plan) (syncer.ExecutionResult, error) {
	executor.executedPlans = append(executor.executedPlans, plan)
	if executor.executionError != nil {
		return syncer.ExecutionResult{OperationCount: len(plan.Operations)}, executor.executionError
	}
	return syncer.ExecutionResult{Submitted: true, OperationCount: len(plan.Operations)}, nil
}

type recordingSummaryShipper struct {
	shippedSummaries []syncer.RunSummary
	shippingError    error
}

func (shipper *recordingSummaryShipper) ShipRunSummary(_ context.Context, summary syncer.RunSummary) error {
	shipper.shippedSummaries = append(shipper.shippedSummaries, summary)
	return shipper.shippingError
}

func TestServiceRunAbortsWhenCatalogFailsToLoad(testInstance *testing.T) {
	catalogError := errors.New("catalog unreadable")
	remoteFetcher := &stubRemoteFetcher{}
	service := syncer.NewService(
		stubCatalogLoader{loadError: catalogError},
		remoteFetcher,
		syncer.NewPlanner(planningClock()),
		&stubPlanExecutor{},
		nil,
		nil,
		nil,
	)

	_, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.ErrorIs(testInstance, runError, catalogError)
	require.Zero(testInstance, remoteFetcher.callCount)
}

func TestServiceRunTreatsFetchFailureAsEmptyStore(testInstance *testing.T) {
	planExecutor := &stubPlanExecutor{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{{Name: "A", URL: "u1"}}},
		&stubRemoteFetcher{fetchError: errors.New("store unreachable")},
		syncer.NewPlanner(planningClock()),
		planExecutor,
		nil,
		nil,
		nil,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.NewCount)
	require.True(testInstance, summary.Synced)
	require.Len(testInstance, planExecutor.executedPlans, 1)
	require.Len(testInstance, planExecutor.executedPlans[0].Operations, 1)
}

func TestServiceRunReportsNoChanges(testInstance *testing.T) {
	planExecutor := &stubPlanExecutor{}
	outputBuffer := &bytes.Buffer{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{{Name: "A", URL: "u1"}}},
		&stubRemoteFetcher{records: []assistants.Record{{Name: "A", URL: "u1", ID: "7"}}},
		syncer.NewPlanner(planningClock()),
		planExecutor,
		nil,
		nil,
		outputBuffer,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.NoError(testInstance, runError)
	require.True(testInstance, summary.Synced)
	require.Zero(testInstance, summary.ChangeCount())
	require.Empty(testInstance, planExecutor.executedPlans)
	require.Contains(testInstance, outputBuffer.String(), "No changes to sync")
	require.Contains(testInstance, outputBuffer.String(), "Sync completed successfully")
}

func TestServiceRunDryRunSkipsExecution(testInstance *testing.T) {
	planExecutor := &stubPlanExecutor{}
	outputBuffer := &bytes.Buffer{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{{Name: "A", URL: "u1"}}},
		&stubRemoteFetcher{},
		syncer.NewPlanner(planningClock()),
		planExecutor,
		nil,
		nil,
		outputBuffer,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml", DryRun: true})
	require.NoError(testInstance, runError)
	require.True(testInstance, summary.DryRun)
	require.False(testInstance, summary.Synced)
	require.Equal(testInstance, 1, summary.OperationCount)
	require.Empty(testInstance, planExecutor.executedPlans)
	require.Contains(testInstance, outputBuffer.String(), "Dry run: 1 operations not submitted")
}

func TestServiceRunExecutesChangesAndReportsCounts(testInstance *testing.T) {
	planExecutor := &stubPlanExecutor{}
	summaryShipper := &recordingSummaryShipper{}
	outputBuffer := &bytes.Buffer{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{
			{Name: "A", URL: "u1"},
			{Name: "B", URL: "u2-changed"},
		}},
		&stubRemoteFetcher{records: []assistants.Record{
			{Name: "B", URL: "u2", ID: "2", Version: 1},
			{Name: "C", URL: "u3", ID: "3", Version: 1},
		}},
		syncer.NewPlanner(planningClock()),
		planExecutor,
		summaryShipper,
		nil,
		outputBuffer,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.NewCount)
	require.Equal(testInstance, 1, summary.UpdatedCount)
	require.Equal(testInstance, 1, summary.DeletedCount)
	require.Zero(testInstance, summary.UnchangedCount)
	require.Equal(testInstance, 4, summary.OperationCount)
	require.True(testInstance, summary.Synced)

	outputText := outputBuffer.String()
	require.Contains(testInstance, outputText, "Changes: 1 new, 1 updated, 1 deleted, 0 unchanged")
	require.Contains(testInstance, outputText, "[NEW] A")
	require.Contains(testInstance, outputText, "[UPDATED] B")
	require.Contains(testInstance, outputText, "[DELETED] C")

	require.Len(testInstance, summaryShipper.shippedSummaries, 1)
	require.Equal(testInstance, summary, summaryShipper.shippedSummaries[0])
}

func TestServiceRunSurfacesExecutionFailureWithRecoveryPath(testInstance *testing.T) {
	executionFailure := syncer.SyncFailureError{
		Cause:                errors.New("store unavailable"),
		RecoveryArtifactPath: "failed_sync_operations.json",
	}
	planExecutor := &stubPlanExecutor{executionError: executionFailure}
	outputBuffer := &bytes.Buffer{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{{Name: "A", URL: "u1"}}},
		&stubRemoteFetcher{},
		syncer.NewPlanner(planningClock()),
		planExecutor,
		nil,
		nil,
		outputBuffer,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.Error(testInstance, runError)
	require.False(testInstance, summary.Synced)
	require.Equal(testInstance, "failed_sync_operations.json", summary.RecoveryArtifactPath)
	require.Contains(testInstance, outputBuffer.String(), "Sync failed:")
}

func TestServiceRunSummaryShippingFailureDoesNotFailRun(testInstance *testing.T) {
	summaryShipper := &recordingSummaryShipper{shippingError: errors.New("log service unreachable")}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{{Name: "A", URL: "u1"}}},
		&stubRemoteFetcher{},
		syncer.NewPlanner(planningClock()),
		&stubPlanExecutor{},
		summaryShipper,
		nil,
		nil,
	)

	_, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.NoError(testInstance, runError)
	require.Len(testInstance, summaryShipper.shippedSummaries, 1)
}

func TestServiceRunCountsQuarantinedRecords(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	service := syncer.NewService(
		stubCatalogLoader{records: []assistants.Record{
			{Description: "no identity"},
			{Name: "A", URL: "u1"},
		}},
		&stubRemoteFetcher{},
		syncer.NewPlanner(planningClock()),
		&stubPlanExecutor{},
		nil,
		nil,
		outputBuffer,
	)

	summary, runError := service.Run(context.Background(), syncer.RunOptions{CatalogPath: "assistants.yaml"})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.QuarantinedCount)
	require.Contains(testInstance, outputBuffer.String(), "Quarantined 1 records without identity")
}
