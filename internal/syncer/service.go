package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

const (
	loadedRecordsTemplateConstant       = "Loaded %d assistants from %s\n"
	fetchedRecordsTemplateConstant      = "Fetched %d assistants from the store\n"
	changeCountsTemplateConstant        = "Changes: %d new, %d updated, %d deleted, %d unchanged\n"
	quarantinedCountTemplateConstant    = "Quarantined %d records without identity\n"
	newRecordTemplateConstant           = "  [NEW] %s\n"
	updatedRecordTemplateConstant       = "  [UPDATED] %s\n"
	deletedRecordTemplateConstant       = "  [DELETED] %s\n"
	noChangesMessageConstant            = "No changes to sync\n"
	dryRunTemplateConstant              = "Dry run: %d operations not submitted\n"
	syncSucceededMessageConstant        = "Sync completed successfully\n"
	syncFailedTemplateConstant          = "Sync failed: %v\n"
	remoteFetchFailedMessageConstant    = "remote fetch failed; assuming empty current state"
	quarantinedRecordsMessageConstant   = "records without derivable identity excluded from diff"
	duplicateKeysMessageConstant        = "duplicate identity keys resolved last-write-wins"
	changesDetectedMessageConstant      = "change detection completed"
	summaryShippingFailedMessage        = "run summary shipping failed"
	logFieldDeclaredCountConstant       = "declared_count"
	logFieldCurrentCountConstant        = "current_count"
	logFieldNewCountConstant            = "new_count"
	logFieldUpdatedCountConstant        = "updated_count"
	logFieldDeletedCountConstant        = "deleted_count"
	logFieldUnchangedCountConstant      = "unchanged_count"
	logFieldQuarantinedCountConstant    = "quarantined_count"
	logFieldDuplicateKeyCountConstant   = "duplicate_key_count"
)

// PlanExecutor submits mutation plans to the remote store.
type PlanExecutor interface {
	Execute(executionContext context.Context, plan Plan) (ExecutionResult, error)
}

// RunOptions captures the parameters for one sync run.
type RunOptions struct {
	CatalogPath string
	DryRun      bool
}

// Service drives the load, fetch, diff, plan, execute pipeline as one
// synchronous run.
type Service struct {
	catalogLoader  CatalogLoader
	remoteFetcher  RemoteFetcher
	planner        Planner
	planExecutor   PlanExecutor
	summaryShipper SummaryShipper
	logger         *zap.Logger
	outputWriter   io.Writer
}

// NewService constructs a Service using the provided collaborators. The
// summary shipper is optional.
func NewService(catalogLoader CatalogLoader, remoteFetcher RemoteFetcher, planner Planner, planExecutor PlanExecutor, summaryShipper SummaryShipper, logger *zap.Logger, outputWriter io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	return &Service{
		catalogLoader:  catalogLoader,
		remoteFetcher:  remoteFetcher,
		planner:        planner,
		planExecutor:   planExecutor,
		summaryShipper: summaryShipper,
		logger:         logger,
		outputWriter:   outputWriter,
	}
}

// Run executes the full pipeline. A missing or malformed catalog aborts the
// run before any remote call; an unreachable read endpoint degrades to an
// empty current state; a failed batch submission returns an error after the
// payload has been spilled for replay.
func (service *Service) Run(executionContext context.Context, options RunOptions) (RunSummary, error) {
	declaredRecords, loadError := service.catalogLoader.LoadRecords(options.CatalogPath)
	if loadError != nil {
		return RunSummary{}, loadError
	}
	fmt.Fprintf(service.outputWriter, loadedRecordsTemplateConstant, len(declaredRecords), options.CatalogPath)

	currentRecords, fetchError := service.remoteFetcher.FetchRecords(executionContext)
	if fetchError != nil {
		service.logger.Warn(remoteFetchFailedMessageConstant, zap.Error(fetchError))
		currentRecords = nil
	}
	fmt.Fprintf(service.outputWriter, fetchedRecordsTemplateConstant, len(currentRecords))

	outcome := Diff(declaredRecords, currentRecords)
	service.reportDiffOutcome(outcome, len(declaredRecords), len(currentRecords))

	plan := service.planner.BuildPlan(outcome)

	summary := RunSummary{
		RunIdentifier:     plan.Identifier,
		NewCount:          len(outcome.New),
		UpdatedCount:      len(outcome.Updated),
		DeletedCount:      len(outcome.Deleted),
		UnchangedCount:    len(outcome.Unchanged),
		QuarantinedCount:  outcome.QuarantinedCount,
		DuplicateKeyCount: outcome.DuplicateKeyCount,
		OperationCount:    len(plan.Operations),
		DryRun:            options.DryRun,
	}

	if plan.Empty() {
		summary.Synced = true
		fmt.Fprint(service.outputWriter, noChangesMessageConstant)
		fmt.Fprint(service.outputWriter, syncSucceededMessageConstant)
		service.shipSummary(executionContext, summary)
		return summary, nil
	}

	if options.DryRun {
		fmt.Fprintf(service.outputWriter, dryRunTemplateConstant, len(plan.Operations))
		service.shipSummary(executionContext, summary)
		return summary, nil
	}

	executionResult, executionError := service.planExecutor.Execute(executionContext, plan)
	if executionError != nil {
		syncFailure := SyncFailureError{}
		if errors.As(executionError, &syncFailure) {
			summary.RecoveryArtifactPath = syncFailure.RecoveryArtifactPath
		}
		fmt.Fprintf(service.outputWriter, syncFailedTemplateConstant, executionError)
		service.shipSummary(executionContext, summary)
		return summary, executionError
	}

	summary.Synced = executionResult.Submitted
	fmt.Fprint(service.outputWriter, syncSucceededMessageConstant)
	service.shipSummary(executionContext, summary)
	return summary, nil
}

func (service *Service) reportDiffOutcome(outcome DiffOutcome, declaredCount int, currentCount int) {
	fmt.Fprintf(
		service.outputWriter,
		changeCountsTemplateConstant,
		len(outcome.New),
		len(outcome.Updated),
		len(outcome.Deleted),
		len(outcome.Unchanged),
	)
	if outcome.QuarantinedCount > 0 {
		fmt.Fprintf(service.outputWriter, quarantinedCountTemplateConstant, outcome.QuarantinedCount)
		service.logger.Warn(quarantinedRecordsMessageConstant, zap.Int(logFieldQuarantinedCountConstant, outcome.QuarantinedCount))
	}
	if outcome.DuplicateKeyCount > 0 {
		service.logger.Warn(duplicateKeysMessageConstant, zap.Int(logFieldDuplicateKeyCountConstant, outcome.DuplicateKeyCount))
	}

	for _, newRecord := range outcome.New {
		fmt.Fprintf(service.outputWriter, newRecordTemplateConstant, newRecord.IdentityKey())
	}
	for _, updatedPair := range outcome.Updated {
		fmt.Fprintf(service.outputWriter, updatedRecordTemplateConstant, updatedPair.New.IdentityKey())
	}
	for _, deletedRecord := range outcome.Deleted {
		fmt.Fprintf(service.outputWriter, deletedRecordTemplateConstant, deletedRecord.IdentityKey())
	}

	service.logger.Info(
		changesDetectedMessageConstant,
		zap.Int(logFieldDeclaredCountConstant, declaredCount),
		zap.Int(logFieldCurrentCountConstant, currentCount),
		zap.Int(logFieldNewCountConstant, len(outcome.New)),
		zap.Int(logFieldUpdatedCountConstant, len(outcome.Updated)),
		zap.Int(logFieldDeletedCountConstant, len(outcome.Deleted)),
		zap.Int(logFieldUnchangedCountConstant, len(outcome.Unchanged)),
	)
}

func (service *Service) shipSummary(executionContext context.Context, summary RunSummary) {
	if service.summaryShipper == nil {
		return
	}
	if shippingError := service.summaryShipper.ShipRunSummary(executionContext, summary); shippingError != nil {
		service.logger.Warn(summaryShippingFailedMessage, zap.Error(shippingError))
	}
}
