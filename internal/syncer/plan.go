package syncer

import (
	"time"

	"github.com/google/uuid"
)

// Plan is an ordered batch of mutation operations produced from a diff
// outcome. An empty plan is a successful no-op, distinct from a failed plan.
type Plan struct {
	Identifier string
	CreatedAt  time.Time
	Operations []Operation
}

// Empty reports whether the plan contains no operations.
func (plan Plan) Empty() bool {
	return len(plan.Operations) == 0
}

// Planner turns diff outcomes into ordered mutation plans.
type Planner struct {
	clock Clock
}

// NewPlanner constructs a Planner using the provided clock for versioning
// timestamps.
func NewPlanner(clock Clock) Planner {
	if clock == nil {
		clock = SystemClock{}
	}
	return Planner{clock: clock}
}

// BuildPlan emits idempotent mutation operations for every change the diff
// detected. Updated pairs produce an adjacent deactivate-then-insert sequence
// so the store keeps an append-only version chain: the successor references
// its predecessor through previousVersion instead of overwriting it.
func (planner Planner) BuildPlan(outcome DiffOutcome) Plan {
	timestamp := planner.clock.Now().UTC().Format(time.RFC3339)

	plan := Plan{
		Identifier: uuid.NewString(),
		CreatedAt:  planner.clock.Now().UTC(),
	}

	for _, newRecord := range outcome.New {
		plan.Operations = append(plan.Operations, InsertOperation{
			Record:    newRecord,
			DateAdded: timestamp,
			Version:   initialRecordVersionConstant,
		})
	}

	for _, updatedPair := range outcome.Updated {
		plan.Operations = append(plan.Operations,
			DeactivateOperation{
				TargetID:        updatedPair.Old.ID,
				DateDeactivated: timestamp,
			},
			InsertOperation{
				Record:          updatedPair.New,
				DateAdded:       timestamp,
				Version:         updatedPair.Old.EffectiveVersion() + 1,
				PreviousVersion: updatedPair.Old.ID,
			},
		)
	}

	for _, deletedRecord := range outcome.Deleted {
		plan.Operations = append(plan.Operations, SoftDeleteOperation{
			TargetID:    deletedRecord.ID,
			DateDeleted: timestamp,
		})
	}

	return plan
}
