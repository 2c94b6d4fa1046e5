package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrDecode matches every *DecodeError
var ErrDecode = errors.New("model: decode failed")

// DecodeError reports a field that is missing, unknown or has the wrong type
// or width
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("model: decode %s: %s", e.Field, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Row is a persisted task row keyed by column name
type Row map[string]any

// TaskFromRow decodes a row by column name. All ten columns must be present
// and carry the column's type and width. Extra columns are ignored.
func TaskFromRow(row Row) (*Task, error) {
	t := &Task{}
	for _, field := range TaskFields {
		value, ok := row[field]
		if !ok {
			return nil, &DecodeError{Field: field, Reason: "column missing"}
		}
		if err := t.assign(field, value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TaskFromValues decodes ten positional values in declaration order
func TaskFromValues(values []any) (*Task, error) {
	if len(values) != len(TaskFields) {
		return nil, &DecodeError{
			Field:  "row",
			Reason: fmt.Sprintf("expected %d columns, got %d", len(TaskFields), len(values)),
		}
	}
	row := make(Row, len(values))
	for i, field := range TaskFields {
		row[field] = values[i]
	}
	return TaskFromRow(row)
}

func asInt64(field string, value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	}
	return 0, typeError(field, "int64", value)
}

func asInt32(field string, value any) (int32, error) {
	var wide int64
	switch v := value.(type) {
	case int32:
		return v, nil
	case int64:
		wide = v
	case int:
		wide = int64(v)
	default:
		return 0, typeError(field, "int32", value)
	}
	if wide < math.MinInt32 || wide > math.MaxInt32 {
		return 0, &DecodeError{Field: field, Reason: fmt.Sprintf("value %d overflows int32", wide)}
	}
	return int32(wide), nil
}

func asBool(field string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		// SQLite stores booleans as integers
		switch v {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, &DecodeError{Field: field, Reason: fmt.Sprintf("integer %d is not a boolean", v)}
	}
	return false, typeError(field, "bool", value)
}

func asString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", typeError(field, "string", value)
}

func typeError(field, want string, value any) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, value)}
}
