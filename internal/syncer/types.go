package syncer

import (
	"time"

	"github.com/hacolby/assistant-sync/internal/assistants"
	"github.com/hacolby/assistant-sync/internal/workerapi"
)

const (
	isActiveFieldNameConstant        = "isActive"
	dateDeactivatedFieldNameConstant = "dateDeactivated"
	dateDeletedFieldNameConstant     = "dateDeleted"
	initialRecordVersionConstant     = 1
)

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Operation is one step of a mutation plan. The concrete variants Insert,
// Deactivate, and SoftDelete make invalid combinations unrepresentable; wire
// encoding is confined to WireOperation.
type Operation interface {
	// WireOperation renders the step in the store's batch request format.
	WireOperation() workerapi.BatchOperation

	isPlanOperation()
}

// InsertOperation creates a new live record version in the store.
type InsertOperation struct {
	Record          assistants.Record
	DateAdded       string
	Version         int
	PreviousVersion string
}

// WireOperation renders the insert step.
func (operation InsertOperation) WireOperation() workerapi.BatchOperation {
	insertedRecord := operation.Record
	activeValue := true
	insertedRecord.IsActive = &activeValue
	insertedRecord.DateAdded = operation.DateAdded
	insertedRecord.Version = operation.Version
	insertedRecord.PreviousVersion = operation.PreviousVersion

	return workerapi.BatchOperation{
		Action: workerapi.BatchActionInsert,
		Data:   insertedRecord.Payload(),
	}
}

func (InsertOperation) isPlanOperation() {}

// DeactivateOperation marks a superseded record version inactive. It is always
// paired with the insert of its successor.
type DeactivateOperation struct {
	TargetID        string
	DateDeactivated string
}

// WireOperation renders the deactivation step.
func (operation DeactivateOperation) WireOperation() workerapi.BatchOperation {
	return workerapi.BatchOperation{
		Action:   workerapi.BatchActionUpdate,
		TargetID: assistants.IdentifierValue(operation.TargetID),
		Data: map[string]any{
			isActiveFieldNameConstant:        false,
			dateDeactivatedFieldNameConstant: operation.DateDeactivated,
		},
	}
}

func (DeactivateOperation) isPlanOperation() {}

// SoftDeleteOperation marks a record deleted without removing it from storage.
type SoftDeleteOperation struct {
	TargetID    string
	DateDeleted string
}

// WireOperation renders the soft-delete step.
func (operation SoftDeleteOperation) WireOperation() workerapi.BatchOperation {
	return workerapi.BatchOperation{
		Action:   workerapi.BatchActionUpdate,
		TargetID: assistants.IdentifierValue(operation.TargetID),
		Data: map[string]any{
			dateDeletedFieldNameConstant: operation.DateDeleted,
			isActiveFieldNameConstant:    false,
		},
	}
}

func (SoftDeleteOperation) isPlanOperation() {}

// RunSummary reports the outcome of one sync run.
type RunSummary struct {
	RunIdentifier        string
	NewCount             int
	UpdatedCount         int
	DeletedCount         int
	UnchangedCount       int
	QuarantinedCount     int
	DuplicateKeyCount    int
	OperationCount       int
	DryRun               bool
	Synced               bool
	RecoveryArtifactPath string
}

// ChangeCount returns the number of records requiring mutation. Zero is a
// valid, successful no-op outcome.
func (summary RunSummary) ChangeCount() int {
	return summary.NewCount + summary.UpdatedCount + summary.DeletedCount
}
