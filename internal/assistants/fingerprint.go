package assistants

import "encoding/json"

// trackedFingerprintFields lists the semantic fields that participate in
// change detection. Bookkeeping fields such as timestamps, version, and
// activation state are deliberately excluded so supersession metadata never
// triggers spurious update detection.
var trackedFingerprintFields = []string{
	nameFieldNameConstant,
	descriptionFieldNameConstant,
	urlFieldNameConstant,
	categoryFieldNameConstant,
	tagsFieldNameConstant,
	authorFieldNameConstant,
}

// Fingerprint computes a deterministic content digest over the tracked
// semantic fields of the record. Two records with identical values for the
// tracked fields produce identical fingerprints regardless of field ordering
// or the presence of untracked fields.
func Fingerprint(record Record) string {
	payload := record.Payload()

	normalized := make(map[string]any, len(trackedFingerprintFields))
	for _, trackedFieldName := range trackedFingerprintFields {
		if trackedFieldValue, trackedFieldPresent := payload[trackedFieldName]; trackedFieldPresent {
			normalized[trackedFieldName] = trackedFieldValue
		}
	}

	// encoding/json serializes map keys in lexicographic order, which keeps
	// the digest stable without explicit sorting.
	serialized, marshalError := json.Marshal(normalized)
	if marshalError != nil {
		return ""
	}
	return string(serialized)
}
