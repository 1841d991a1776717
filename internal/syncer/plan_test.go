package syncer_test

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hacolby/assistant-sync/internal/assistants"
	"github.com/hacolby/assistant-sync/internal/syncer"
	"github.com/hacolby/assistant-sync/internal/workerapi"
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

func planningClock() fixedClock {
	return fixedClock{instant: time.Date(2026, time.August, 30, 12, 30, 0, 0, time.UTC)}
}

func TestBuildPlanEmptyOutcome(testInstance *testing.T) {
	planner := syncer.NewPlanner(planningClock())

	plan := planner.BuildPlan(syncer.DiffOutcome{})
	require.True(testInstance, plan.Empty())
	require.NotEmpty(testInstance, plan.Identifier)
}

func TestBuildPlanInsertsNewRecordsAtInitialVersion(testInstance *testing.T) {
	planner := syncer.NewPlanner(planningClock())

	plan := planner.BuildPlan(syncer.DiffOutcome{
		New: []assistants.Record{{Name: "A", URL: "u1"}},
	})

	require.Len(testInstance, plan.Operations, 1)
	insertOperation, isInsert := plan.Operations[0].(syncer.InsertOperation)
	require.True(testInstance, isInsert)
	require.Equal(testInstance, 1, insertOperation.Version)
	require.Empty(testInstance, insertOperation.PreviousVersion)
	require.Equal(testInstance, "2026-08-30T12:30:00Z", insertOperation.DateAdded)
}

func TestBuildPlanUpdatesChainVersions(testInstance *testing.T) {
	testCases := []struct {
		name            string
		oldVersion      int
		expectedVersion int
	}{
		{name: "explicit_version_increments", oldVersion: 3, expectedVersion: 4},
		{name: "missing_version_defaults_to_one", oldVersion: 0, expectedVersion: 2},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			planner := syncer.NewPlanner(planningClock())

			plan := planner.BuildPlan(syncer.DiffOutcome{
				Updated: []syncer.UpdatedPair{
					{
						Old: assistants.Record{Name: "A", URL: "u1", ID: "41", Version: testCase.oldVersion},
						New: assistants.Record{Name: "A", URL: "u2"},
					},
				},
			})

			require.Len(subtestInstance, plan.Operations, 2)

			deactivateOperation, isDeactivate := plan.Operations[0].(syncer.DeactivateOperation)
			require.True(subtestInstance, isDeactivate)
			require.Equal(subtestInstance, "41", deactivateOperation.TargetID)

			insertOperation, isInsert := plan.Operations[1].(syncer.InsertOperation)
			require.True(subtestInstance, isInsert)
			require.Equal(subtestInstance, testCase.expectedVersion, insertOperation.Version)
			require.Equal(subtestInstance, "41", insertOperation.PreviousVersion)
		})
	}
}

func TestBuildPlanSoftDeletesRemovedRecords(testInstance *testing.T) {
	planner := syncer.NewPlanner(planningClock())

	plan := planner.BuildPlan(syncer.DiffOutcome{
		Deleted: []assistants.Record{{Name: "C", ID: "9"}},
	})

	require.Len(testInstance, plan.Operations, 1)
	softDeleteOperation, isSoftDelete := plan.Operations[0].(syncer.SoftDeleteOperation)
	require.True(testInstance, isSoftDelete)
	require.Equal(testInstance, "9", softDeleteOperation.TargetID)
	require.Equal(testInstance, "2026-08-30T12:30:00Z", softDeleteOperation.DateDeleted)
}

func TestBuildPlanOrdersNewThenUpdatedThenDeleted(testInstance *testing.T) {
	planner := syncer.NewPlanner(planningClock())

	plan := planner.BuildPlan(syncer.DiffOutcome{
		New: []assistants.Record{{Name: "N"}},
		Updated: []syncer.UpdatedPair{
			{Old: assistants.Record{Name: "U", ID: "2", Version: 1}, New: assistants.Record{Name: "U", URL: "changed"}},
		},
		Deleted: []assistants.Record{{Name: "D", ID: "3"}},
	})

	require.Len(testInstance, plan.Operations, 4)
	require.IsType(testInstance, syncer.InsertOperation{}, plan.Operations[0])
	require.IsType(testInstance, syncer.DeactivateOperation{}, plan.Operations[1])
	require.IsType(testInstance, syncer.InsertOperation{}, plan.Operations[2])
	require.IsType(testInstance, syncer.SoftDeleteOperation{}, plan.Operations[3])
}

func TestInsertOperationWireEncoding(testInstance *testing.T) {
	operation := syncer.InsertOperation{
		Record:          assistants.Record{Name: "A", URL: "u1", Tags: []string{"go"}},
		DateAdded:       "2026-08-30T12:30:00Z",
		Version:         2,
		PreviousVersion: "41",
	}

	wireOperation := operation.WireOperation()
	require.Equal(testInstance, workerapi.BatchActionInsert, wireOperation.Action)
	require.Nil(testInstance, wireOperation.TargetID)
	require.Equal(testInstance, "A", wireOperation.Data["name"])
	require.Equal(testInstance, true, wireOperation.Data["isActive"])
	require.Equal(testInstance, "2026-08-30T12:30:00Z", wireOperation.Data["dateAdded"])
	require.Equal(testInstance, 2, wireOperation.Data["version"])
	require.Equal(testInstance, json.Number("41"), wireOperation.Data["previousVersion"])
}

func TestDeactivateOperationWireEncoding(testInstance *testing.T) {
	operation := syncer.DeactivateOperation{TargetID: "41", DateDeactivated: "2026-08-30T12:30:00Z"}

	wireOperation := operation.WireOperation()
	require.Equal(testInstance, workerapi.BatchActionUpdate, wireOperation.Action)
	require.NotNil(testInstance, wireOperation.TargetID)
	require.Equal(testInstance, map[string]any{
		"isActive":        false,
		"dateDeactivated": "2026-08-30T12:30:00Z",
	}, wireOperation.Data)
}

func TestSoftDeleteOperationWireEncoding(testInstance *testing.T) {
	operation := syncer.SoftDeleteOperation{TargetID: "9", DateDeleted: "2026-08-30T12:30:00Z"}

	wireOperation := operation.WireOperation()
	require.Equal(testInstance, workerapi.BatchActionUpdate, wireOperation.Action)
	require.Equal(testInstance, map[string]any{
		"isActive":    false,
		"dateDeleted": "2026-08-30T12:30:00Z",
	}, wireOperation.Data)
}

func TestReplayingPlanProducesNoFurtherChanges(testInstance *testing.T) {
	declared := []assistants.Record{
		{Name: "A", URL: "u1"},
		{Name: "B", URL: "u2-changed"},
	}
	current := []assistants.Record{
		{Name: "B", URL: "u2", ID: "2", Version: 1},
		{Name: "C", URL: "u3", ID: "3", Version: 1},
	}

	planner := syncer.NewPlanner(planningClock())
	plan := planner.BuildPlan(syncer.Diff(declared, current))
	require.False(testInstance, plan.Empty())

	postState := applyPlanOperations(current, plan.Operations)

	replayOutcome := syncer.Diff(declared, postState)
	replayPlan := planner.BuildPlan(replayOutcome)
	require.True(testInstance, replayPlan.Empty())
	require.Len(testInstance, replayOutcome.Unchanged, len(declared))
}

// applyPlanOperations simulates the store applying a batch so convergence can
// be asserted without a live worker.
func applyPlanOperations(current []assistants.Record, operations []syncer.Operation) []assistants.Record {
	postState := make([]assistants.Record, len(current))
	copy(postState, current)

	nextIdentifier := 100
	for _, operation := range operations {
		switch typedOperation := operation.(type) {
		case syncer.InsertOperation:
			insertedRecord := assistants.RecordFromPayload(typedOperation.WireOperation().Data)
			insertedRecord.ID = strconv.Itoa(nextIdentifier)
			nextIdentifier++
			postState = append(postState, insertedRecord)
		case syncer.DeactivateOperation:
			for recordIndex := range postState {
				if postState[recordIndex].ID == typedOperation.TargetID {
					inactive := false
					postState[recordIndex].IsActive = &inactive
					postState[recordIndex].DateDeactivated = typedOperation.DateDeactivated
				}
			}
		case syncer.SoftDeleteOperation:
			for recordIndex := range postState {
				if postState[recordIndex].ID == typedOperation.TargetID {
					postState[recordIndex].DateDeleted = typedOperation.DateDeleted
				}
			}
		}
	}

	return postState
}
