package syncer

import "github.com/hacolby/assistant-sync/internal/assistants"

// UpdatedPair carries the persisted record and its declared replacement for a
// detected content change.
type UpdatedPair struct {
	Old assistants.Record
	New assistants.Record
}

// DiffOutcome partitions the compared collections into the four change
// classes. Ordering within each class follows declaration order: declared
// order for New, Updated, and Unchanged, current-store order for Deleted.
type DiffOutcome struct {
	New       []assistants.Record
	Updated   []UpdatedPair
	Deleted   []assistants.Record
	Unchanged []assistants.Record

	// QuarantinedCount tallies records excluded from comparison because no
	// identity key could be derived. They are surfaced rather than silently
	// dropped so configuration errors stay observable.
	QuarantinedCount int
	// DuplicateKeyCount tallies declared records whose identity key repeated
	// an earlier declaration; the later declaration wins.
	DuplicateKeyCount int
}

// keyedCollection is an identity-keyed view of a record collection that
// remembers first-seen key order and resolves duplicates last-write-wins.
type keyedCollection struct {
	recordsByKey map[string]assistants.Record
	orderedKeys  []string
	quarantined  int
	duplicates   int
}

func newKeyedCollection(records []assistants.Record, includeRecord func(assistants.Record) bool) keyedCollection {
	collection := keyedCollection{recordsByKey: make(map[string]assistants.Record, len(records))}

	for _, record := range records {
		if includeRecord != nil && !includeRecord(record) {
			continue
		}

		identityKey := record.IdentityKey()
		if len(identityKey) == 0 {
			collection.quarantined++
			continue
		}

		if _, keyAlreadySeen := collection.recordsByKey[identityKey]; keyAlreadySeen {
			collection.duplicates++
		} else {
			collection.orderedKeys = append(collection.orderedKeys, identityKey)
		}
		collection.recordsByKey[identityKey] = record
	}

	return collection
}

func (collection keyedCollection) contains(identityKey string) bool {
	_, keyPresent := collection.recordsByKey[identityKey]
	return keyPresent
}

// Diff compares the declared records against the persisted collection and
// classifies every identity key into exactly one change class. Only live
// persisted records participate: superseded and soft-deleted versions are
// excluded entirely, so a declared record whose predecessor was already
// deactivated classifies as New rather than resurrecting history.
func Diff(declaredRecords []assistants.Record, currentRecords []assistants.Record) DiffOutcome {
	declaredCollection := newKeyedCollection(declaredRecords, nil)
	liveCollection := newKeyedCollection(currentRecords, func(record assistants.Record) bool {
		return record.Live()
	})

	outcome := DiffOutcome{
		QuarantinedCount:  declaredCollection.quarantined + liveCollection.quarantined,
		DuplicateKeyCount: declaredCollection.duplicates + liveCollection.duplicates,
	}

	for _, identityKey := range declaredCollection.orderedKeys {
		declaredRecord := declaredCollection.recordsByKey[identityKey]

		liveRecord, livePresent := liveCollection.recordsByKey[identityKey]
		if !livePresent {
			outcome.New = append(outcome.New, declaredRecord)
			continue
		}

		if assistants.Fingerprint(declaredRecord) == assistants.Fingerprint(liveRecord) {
			outcome.Unchanged = append(outcome.Unchanged, declaredRecord)
			continue
		}

		outcome.Updated = append(outcome.Updated, UpdatedPair{Old: liveRecord, New: declaredRecord})
	}

	for _, identityKey := range liveCollection.orderedKeys {
		if declaredCollection.contains(identityKey) {
			continue
		}
		outcome.Deleted = append(outcome.Deleted, liveCollection.recordsByKey[identityKey])
	}

	return outcome
}
