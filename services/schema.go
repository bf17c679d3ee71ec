package services

import (
	"fmt"
	"strings"
)

// Kind is the wire kind of a JSON-decoded value.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

type FieldSpec struct {
	Name  string
	Kinds []Kind
}

// ObservationSchema lists every required observation field with its allowed
// kinds. Validation walks it in order and stops at the first violation.
var ObservationSchema = []FieldSpec{
	{Name: "observation_id", Kinds: []Kind{KindString}},
	{Name: "Type", Kinds: []Kind{KindString}},
	{Name: "Date", Kinds: []Kind{KindString}},
	{Name: "Part of a policing operation", Kinds: []Kind{KindBoolean}},
	{Name: "Latitude", Kinds: []Kind{KindNumber}},
	{Name: "Longitude", Kinds: []Kind{KindNumber}},
	{Name: "Gender", Kinds: []Kind{KindString}},
	{Name: "Age range", Kinds: []Kind{KindString}},
	{Name: "Officer-defined ethnicity", Kinds: []Kind{KindString}},
	{Name: "Legislation", Kinds: []Kind{KindString}},
	{Name: "Object of search", Kinds: []Kind{KindString}},
	{Name: "station", Kinds: []Kind{KindString}},
}

// SchemaError reports the first missing or mistyped field of an observation.
type SchemaError struct {
	Field   string
	message string
}

func (e *SchemaError) Error() string { return e.message }

func newMissingFieldError(field string) *SchemaError {
	return &SchemaError{
		Field:   field,
		message: fmt.Sprintf("%s column not found", field),
	}
}

func newWrongTypeError(field string, expected []Kind, actual Kind) *SchemaError {
	return &SchemaError{
		Field: field,
		message: fmt.Sprintf("%s column has wrong data type. Expected %s, got %s",
			field, formatKinds(expected), actual),
	}
}

func formatKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ValidateObservation checks obs against ObservationSchema in table order,
// short-circuiting on the first missing or mistyped field. It never modifies
// the observation.
func ValidateObservation(obs map[string]any) error {
	for _, field := range ObservationSchema {
		value, ok := obs[field.Name]
		if !ok {
			return newMissingFieldError(field.Name)
		}
		actual := kindOf(value)
		if !kindAllowed(actual, field.Kinds) {
			return newWrongTypeError(field.Name, field.Kinds, actual)
		}
	}
	return nil
}

func kindAllowed(k Kind, allowed []Kind) bool {
	for _, a := range allowed {
		if k == a {
			return true
		}
	}
	return false
}

func kindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64, float32, int, int32, int64:
		return KindNumber
	case nil:
		return KindNull
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return Kind(fmt.Sprintf("%T", v))
	}
}
