package assistants

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	identifierFieldNameConstant      = "id"
	nameFieldNameConstant            = "name"
	descriptionFieldNameConstant     = "description"
	urlFieldNameConstant             = "url"
	categoryFieldNameConstant        = "category"
	tagsFieldNameConstant            = "tags"
	authorFieldNameConstant          = "author"
	isActiveFieldNameConstant        = "isActive"
	dateAddedFieldNameConstant       = "dateAdded"
	dateDeactivatedFieldNameConstant = "dateDeactivated"
	dateDeletedFieldNameConstant     = "dateDeleted"
	versionFieldNameConstant         = "version"
	previousVersionFieldNameConstant = "previousVersion"
)

// Record represents one declared or persisted assistant. Fields outside the
// known set are retained in ExtraFields so inserts carry every declared value
// back to the store unchanged.
type Record struct {
	ID              string
	Name            string
	Description     string
	URL             string
	Category        string
	Tags            []string
	Author          string
	IsActive        *bool
	DateAdded       string
	DateDeactivated string
	DateDeleted     string
	Version         int
	PreviousVersion string
	ExtraFields     map[string]any
}

// IdentityKey derives the comparison key for the record: the name when
// present, otherwise the identifier. An empty result means the record has no
// derivable identity and cannot participate in diffing.
func (record Record) IdentityKey() string {
	trimmedName := strings.TrimSpace(record.Name)
	if len(trimmedName) > 0 {
		return trimmedName
	}
	return strings.TrimSpace(record.ID)
}

// Active reports whether the record is marked active. Records that never
// carried an explicit isActive value default to active.
func (record Record) Active() bool {
	if record.IsActive == nil {
		return true
	}
	return *record.IsActive
}

// Live reports whether the record participates in diffing: active and not
// soft-deleted.
func (record Record) Live() bool {
	return record.Active() && len(record.DateDeleted) == 0
}

// EffectiveVersion returns the record version, defaulting to one when unset.
func (record Record) EffectiveVersion() int {
	if record.Version <= 0 {
		return 1
	}
	return record.Version
}

// Payload renders the record as a field map carrying the known fields that are
// set plus every retained extra field.
func (record Record) Payload() map[string]any {
	payload := make(map[string]any, len(record.ExtraFields)+12)
	for extraFieldName, extraFieldValue := range record.ExtraFields {
		payload[extraFieldName] = extraFieldValue
	}
	if len(record.ID) > 0 {
		payload[identifierFieldNameConstant] = IdentifierValue(record.ID)
	}
	if len(record.Name) > 0 {
		payload[nameFieldNameConstant] = record.Name
	}
	if len(record.Description) > 0 {
		payload[descriptionFieldNameConstant] = record.Description
	}
	if len(record.URL) > 0 {
		payload[urlFieldNameConstant] = record.URL
	}
	if len(record.Category) > 0 {
		payload[categoryFieldNameConstant] = record.Category
	}
	if len(record.Tags) > 0 {
		payload[tagsFieldNameConstant] = append([]string{}, record.Tags...)
	}
	if len(record.Author) > 0 {
		payload[authorFieldNameConstant] = record.Author
	}
	if record.IsActive != nil {
		payload[isActiveFieldNameConstant] = *record.IsActive
	}
	if len(record.DateAdded) > 0 {
		payload[dateAddedFieldNameConstant] = record.DateAdded
	}
	if len(record.DateDeactivated) > 0 {
		payload[dateDeactivatedFieldNameConstant] = record.DateDeactivated
	}
	if len(record.DateDeleted) > 0 {
		payload[dateDeletedFieldNameConstant] = record.DateDeleted
	}
	if record.Version > 0 {
		payload[versionFieldNameConstant] = record.Version
	}
	if len(record.PreviousVersion) > 0 {
		payload[previousVersionFieldNameConstant] = IdentifierValue(record.PreviousVersion)
	}
	return payload
}

// RecordFromPayload builds a Record from a decoded field map, retaining
// unrecognized fields.
func RecordFromPayload(payload map[string]any) Record {
	record := Record{}
	extraFields := make(map[string]any)

	for fieldName, fieldValue := range payload {
		switch fieldName {
		case identifierFieldNameConstant:
			record.ID = stringValue(fieldValue)
		case nameFieldNameConstant:
			record.Name = stringValue(fieldValue)
		case descriptionFieldNameConstant:
			record.Description = stringValue(fieldValue)
		case urlFieldNameConstant:
			record.URL = stringValue(fieldValue)
		case categoryFieldNameConstant:
			record.Category = stringValue(fieldValue)
		case tagsFieldNameConstant:
			record.Tags = stringSliceValue(fieldValue)
		case authorFieldNameConstant:
			record.Author = stringValue(fieldValue)
		case isActiveFieldNameConstant:
			if booleanValue, isBoolean := fieldValue.(bool); isBoolean {
				record.IsActive = &booleanValue
			}
		case dateAddedFieldNameConstant:
			record.DateAdded = stringValue(fieldValue)
		case dateDeactivatedFieldNameConstant:
			record.DateDeactivated = stringValue(fieldValue)
		case dateDeletedFieldNameConstant:
			record.DateDeleted = stringValue(fieldValue)
		case versionFieldNameConstant:
			record.Version = integerValue(fieldValue)
		case previousVersionFieldNameConstant:
			record.PreviousVersion = stringValue(fieldValue)
		default:
			extraFields[fieldName] = fieldValue
		}
	}

	if len(extraFields) > 0 {
		record.ExtraFields = extraFields
	}

	return record
}

// MarshalJSON encodes the record through its payload representation so extra
// fields survive round trips.
func (record Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(record.Payload())
}

// UnmarshalJSON decodes the record from an arbitrary JSON object, retaining
// unrecognized fields.
func (record *Record) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	payload := map[string]any{}
	if decodeError := decoder.Decode(&payload); decodeError != nil {
		return decodeError
	}

	*record = RecordFromPayload(payload)
	return nil
}

// IdentifierValue keeps numeric identifiers numeric on the wire while passing
// other identifiers through as strings.
func IdentifierValue(identifier string) any {
	trimmedIdentifier := strings.TrimSpace(identifier)
	if isIntegerLiteral(trimmedIdentifier) {
		return json.Number(trimmedIdentifier)
	}
	return identifier
}

func isIntegerLiteral(candidate string) bool {
	if len(candidate) == 0 {
		return false
	}
	_, parseError := strconv.ParseInt(candidate, 10, 64)
	return parseError == nil
}

func stringValue(fieldValue any) string {
	switch typedValue := fieldValue.(type) {
	case string:
		return typedValue
	case json.Number:
		return typedValue.String()
	case int:
		return strconv.Itoa(typedValue)
	case int64:
		return strconv.FormatInt(typedValue, 10)
	case float64:
		return strconv.FormatFloat(typedValue, 'f', -1, 64)
	default:
		return ""
	}
}

func integerValue(fieldValue any) int {
	switch typedValue := fieldValue.(type) {
	case int:
		return typedValue
	case int64:
		return int(typedValue)
	case float64:
		return int(typedValue)
	case json.Number:
		parsedValue, parseError := typedValue.Int64()
		if parseError != nil {
			return 0
		}
		return int(parsedValue)
	default:
		return 0
	}
}

func stringSliceValue(fieldValue any) []string {
	switch typedValue := fieldValue.(type) {
	case []string:
		return append([]string{}, typedValue...)
	case []any:
		values := make([]string, 0, len(typedValue))
		for index := range typedValue {
			values = append(values, stringValue(typedValue[index]))
		}
		return values
	default:
		return nil
	}
}
