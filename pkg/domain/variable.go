package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VariableKind is the declared type of a blackboard variable.
type VariableKind string

const (
	KindBool   VariableKind = "bool"
	KindInt    VariableKind = "int"
	KindFloat  VariableKind = "float"
	KindString VariableKind = "string"
)

// ParseVariableKind maps a textual kind (case-insensitive) to a VariableKind.
func ParseVariableKind(s string) (VariableKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "number", "double":
		return KindFloat, nil
	case "string", "text":
		return KindString, nil
	}
	return "", fmt.Errorf("%w: variable kind %q", ErrUnknownKind, s)
}

// Variable is a named value stored in canonical string form.
type Variable struct {
	Name  string       `json:"name" yaml:"name"`
	Kind  VariableKind `json:"kind" yaml:"kind"`
	Value string       `json:"value" yaml:"value"`
}

// Parsed returns the value decoded according to the variable's kind.
func (v Variable) Parsed() (any, error) {
	switch v.Kind {
	case KindBool:
		return strconv.ParseBool(v.Value)
	case KindInt:
		return strconv.ParseInt(v.Value, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(v.Value, 64)
	case KindString:
		return v.Value, nil
	}
	return nil, fmt.Errorf("%w: variable kind %q", ErrUnknownKind, v.Kind)
}

// ZeroValue returns the canonical zero value for a kind.
func ZeroValue(kind VariableKind) string {
	switch kind {
	case KindBool:
		return "false"
	case KindInt, KindFloat:
		return "0"
	}
	return ""
}

// FormatValue converts a Go value to the canonical string form of kind.
// Strings are accepted for every kind as long as they parse.
func FormatValue(kind VariableKind, value any) (string, error) {
	switch kind {
	case KindBool:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return "", fmt.Errorf("parse bool %q: %w", v, err)
			}
			return strconv.FormatBool(b), nil
		}
	case KindInt:
		if i, ok := toInt64(value); ok {
			return strconv.FormatInt(i, 10), nil
		}
		if s, ok := value.(string); ok {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return "", fmt.Errorf("parse int %q: %w", s, err)
			}
			return strconv.FormatInt(i, 10), nil
		}
	case KindFloat:
		if f, ok := toFloat64(value); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		if s, ok := value.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return "", fmt.Errorf("parse float %q: %w", s, err)
			}
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		if value != nil {
			return fmt.Sprint(value), nil
		}
	default:
		return "", fmt.Errorf("%w: variable kind %q", ErrUnknownKind, kind)
	}
	return "", fmt.Errorf("cannot format %T as %s", value, kind)
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		// JSON decoders hand us float64 for every number.
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), true
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int64(v), true
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return 0, false
	}
	if i, ok := toInt64(value); ok {
		return float64(i), true
	}
	return 0, false
}
