package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hacolby/assistant-sync/internal/workerapi"
)

const (
	recoveryArtifactFileModeConstant        = 0o644
	recoveryDirectoryModeConstant           = 0o755
	recoveryEncodingErrorTemplateConstant   = "unable to encode recovery artifact: %w"
	recoveryWriteErrorTemplateConstant      = "unable to write recovery artifact %s: %w"
	batchSubmissionFailedTemplateConstant   = "batch submission failed: %v (batch persisted to %s)"
	batchSubmissionUnspilledTemplate        = "batch submission failed: %v (recovery artifact could not be written: %v)"
	submittingBatchMessageConstant          = "submitting mutation batch"
	batchAcknowledgedMessageConstant        = "mutation batch acknowledged"
	logFieldOperationCountConstant          = "operation_count"
	logFieldRunIdentifierConstant           = "run_id"
	logFieldAcknowledgementConstant         = "acknowledgement"
)

// SyncFailureError reports a failed batch submission. The whole batch is
// treated as not applied; no partial success is inferred.
type SyncFailureError struct {
	Cause                error
	RecoveryArtifactPath string
	recoveryFailure      error
}

// Error describes the submission failure and where the batch was spilled.
func (failure SyncFailureError) Error() string {
	if failure.recoveryFailure != nil {
		return fmt.Sprintf(batchSubmissionUnspilledTemplate, failure.Cause, failure.recoveryFailure)
	}
	return fmt.Sprintf(batchSubmissionFailedTemplateConstant, failure.Cause, failure.RecoveryArtifactPath)
}

// Unwrap exposes the underlying transport or status error.
func (failure SyncFailureError) Unwrap() error {
	return failure.Cause
}

// FileRecoverySink persists failed batch payloads to a fixed local path using
// the same schema as the write-endpoint request body.
type FileRecoverySink struct {
	Path string
}

// PersistFailedBatch writes the batch request as indented JSON.
func (sink FileRecoverySink) PersistFailedBatch(batchRequest workerapi.BatchRequest) (string, error) {
	encodedBatch, encodingError := json.MarshalIndent(batchRequest, "", "  ")
	if encodingError != nil {
		return "", fmt.Errorf(recoveryEncodingErrorTemplateConstant, encodingError)
	}

	if parentDirectory := filepath.Dir(sink.Path); parentDirectory != "." {
		if directoryError := os.MkdirAll(parentDirectory, recoveryDirectoryModeConstant); directoryError != nil {
			return "", fmt.Errorf(recoveryWriteErrorTemplateConstant, sink.Path, directoryError)
		}
	}

	if writeError := os.WriteFile(sink.Path, encodedBatch, recoveryArtifactFileModeConstant); writeError != nil {
		return "", fmt.Errorf(recoveryWriteErrorTemplateConstant, sink.Path, writeError)
	}

	return sink.Path, nil
}

// ExecutionResult reports the outcome of one batch execution.
type ExecutionResult struct {
	Submitted       bool
	OperationCount  int
	Acknowledgement workerapi.BatchAcknowledgement
}

// Executor submits whole mutation plans to the remote store.
type Executor struct {
	submitter    BatchSubmitter
	recoverySink RecoverySink
	sourceLabel  string
	logger       *zap.Logger
	clock        Clock
}

// NewExecutor constructs an Executor using the provided collaborators.
func NewExecutor(submitter BatchSubmitter, recoverySink RecoverySink, sourceLabel string, logger *zap.Logger, clock Clock) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Executor{
		submitter:    submitter,
		recoverySink: recoverySink,
		sourceLabel:  sourceLabel,
		logger:       logger,
		clock:        clock,
	}
}

// Execute submits the plan as one batch request. An empty plan succeeds
// immediately without contacting the store. On any transport or remote-side
// failure the entire batch is treated as not applied, the payload is spilled
// to the recovery sink, and a SyncFailureError is returned.
func (executor *Executor) Execute(executionContext context.Context, plan Plan) (ExecutionResult, error) {
	if plan.Empty() {
		return ExecutionResult{Submitted: false, OperationCount: 0}, nil
	}

	wireOperations := make([]workerapi.BatchOperation, 0, len(plan.Operations))
	for _, planOperation := range plan.Operations {
		wireOperations = append(wireOperations, planOperation.WireOperation())
	}

	batchRequest := workerapi.BatchRequest{
		Operations:    wireOperations,
		Source:        executor.sourceLabel,
		Timestamp:     executor.clock.Now().UTC().Format(time.RFC3339),
		RunIdentifier: plan.Identifier,
	}

	executor.logger.Info(
		submittingBatchMessageConstant,
		zap.Int(logFieldOperationCountConstant, len(wireOperations)),
		zap.String(logFieldRunIdentifierConstant, plan.Identifier),
	)

	acknowledgement, submissionError := executor.submitter.SubmitBatch(executionContext, batchRequest)
	if submissionError != nil {
		failure := SyncFailureError{Cause: submissionError}
		if executor.recoverySink != nil {
			artifactPath, recoveryError := executor.recoverySink.PersistFailedBatch(batchRequest)
			failure.RecoveryArtifactPath = artifactPath
			failure.recoveryFailure = recoveryError
		}
		return ExecutionResult{Submitted: false, OperationCount: len(wireOperations)}, failure
	}

	executor.logger.Info(
		batchAcknowledgedMessageConstant,
		zap.String(logFieldRunIdentifierConstant, plan.Identifier),
		zap.Any(logFieldAcknowledgementConstant, acknowledgement),
	)

	return ExecutionResult{
		Submitted:       true,
		OperationCount:  len(wireOperations),
		Acknowledgement: acknowledgement,
	}, nil
}
