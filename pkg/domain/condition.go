package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Condition is a predicate evaluated against the runtime blackboard.
type Condition interface {
	// Type is the stable tag used to serialize the condition.
	Type() string
	VariableName() string
	Evaluate(vars VariableReader) (bool, error)
}

// Comparison is a numeric comparison operator.
type Comparison string

const (
	Equal          Comparison = "=="
	NotEqual       Comparison = "!="
	Greater        Comparison = ">"
	GreaterOrEqual Comparison = ">="
	Less           Comparison = "<"
	LessOrEqual    Comparison = "<="
)

// ParseComparison accepts both symbols and names ("greater_or_equal").
func ParseComparison(s string) (Comparison, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "==", "=", "eq", "equal", "equals":
		return Equal, nil
	case "!=", "ne", "not_equal", "notequal":
		return NotEqual, nil
	case ">", "gt", "greater":
		return Greater, nil
	case ">=", "ge", "gte", "greater_or_equal", "greaterorequal":
		return GreaterOrEqual, nil
	case "<", "lt", "less":
		return Less, nil
	case "<=", "le", "lte", "less_or_equal", "lessorequal":
		return LessOrEqual, nil
	}
	return "", fmt.Errorf("%w: comparison %q", ErrUnknownKind, s)
}

// BoolCheck is the expectation of a BoolCondition.
type BoolCheck string

const (
	IsTrue  BoolCheck = "is_true"
	IsFalse BoolCheck = "is_false"
)

// StringMatch is the operator of a StringCondition.
type StringMatch string

const (
	StringEquals     StringMatch = "equals"
	StringNotEquals  StringMatch = "not_equals"
	StringContains   StringMatch = "contains"
	StringStartsWith StringMatch = "starts_with"
	StringEndsWith   StringMatch = "ends_with"
)

// DefaultFloatTolerance is used by FloatCondition when Tolerance is zero.
const DefaultFloatTolerance = 0.001

const (
	ConditionBool   = "bool"
	ConditionInt    = "int"
	ConditionFloat  = "float"
	ConditionString = "string"
)

// BoolCondition checks a bool variable.
type BoolCondition struct {
	Variable string
	Check    BoolCheck
}

func (c *BoolCondition) Type() string         { return ConditionBool }
func (c *BoolCondition) VariableName() string { return c.Variable }

// Evaluate fails closed on missing variables. A variable of another kind is
// still accepted when its text parses as a bool.
func (c *BoolCondition) Evaluate(vars VariableReader) (bool, error) {
	v, ok := vars.Lookup(c.Variable)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrVariableNotFound, c.Variable)
	}
	value, err := strconv.ParseBool(strings.TrimSpace(v.Value))
	if err != nil {
		return false, &TypeMismatchError{Variable: c.Variable, Want: KindBool, Got: fmt.Sprintf("%s %q", v.Kind, v.Value)}
	}
	switch c.Check {
	case IsTrue:
		return value, nil
	case IsFalse:
		return !value, nil
	}
	return false, fmt.Errorf("%w: bool check %q", ErrUnknownKind, c.Check)
}

// IntCondition compares an int variable with a constant.
type IntCondition struct {
	Variable string
	Op       Comparison
	Value    int64
}

func (c *IntCondition) Type() string         { return ConditionInt }
func (c *IntCondition) VariableName() string { return c.Variable }

func (c *IntCondition) Evaluate(vars VariableReader) (bool, error) {
	v, err := strictLookup(vars, c.Variable, KindInt)
	if err != nil {
		return false, err
	}
	current, err := Typed[int64](vars, v.Name)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case Equal:
		return current == c.Value, nil
	case NotEqual:
		return current != c.Value, nil
	case Greater:
		return current > c.Value, nil
	case GreaterOrEqual:
		return current >= c.Value, nil
	case Less:
		return current < c.Value, nil
	case LessOrEqual:
		return current <= c.Value, nil
	}
	return false, fmt.Errorf("%w: comparison %q", ErrUnknownKind, c.Op)
}

// FloatCondition compares a float variable with a constant.
// Equality uses Tolerance, or DefaultFloatTolerance when it is zero.
type FloatCondition struct {
	Variable  string
	Op        Comparison
	Value     float64
	Tolerance float64
}

func (c *FloatCondition) Type() string         { return ConditionFloat }
func (c *FloatCondition) VariableName() string { return c.Variable }

func (c *FloatCondition) Evaluate(vars VariableReader) (bool, error) {
	v, err := strictLookup(vars, c.Variable, KindFloat)
	if err != nil {
		return false, err
	}
	current, err := Typed[float64](vars, v.Name)
	if err != nil {
		return false, err
	}
	tolerance := c.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultFloatTolerance
	}
	switch c.Op {
	case Equal:
		return math.Abs(current-c.Value) < tolerance, nil
	case NotEqual:
		return math.Abs(current-c.Value) >= tolerance, nil
	case Greater:
		return current > c.Value, nil
	case GreaterOrEqual:
		return current >= c.Value, nil
	case Less:
		return current < c.Value, nil
	case LessOrEqual:
		return current <= c.Value, nil
	}
	return false, fmt.Errorf("%w: comparison %q", ErrUnknownKind, c.Op)
}

// StringCondition matches a string variable. Matching ignores case unless
// CaseSensitive is set.
type StringCondition struct {
	Variable      string
	Op            StringMatch
	Value         string
	CaseSensitive bool
}

func (c *StringCondition) Type() string         { return ConditionString }
func (c *StringCondition) VariableName() string { return c.Variable }

func (c *StringCondition) Evaluate(vars VariableReader) (bool, error) {
	v, err := strictLookup(vars, c.Variable, KindString)
	if err != nil {
		return false, err
	}
	current, want := v.Value, c.Value
	if !c.CaseSensitive {
		current, want = strings.ToLower(current), strings.ToLower(want)
	}
	switch c.Op {
	case StringEquals:
		return current == want, nil
	case StringNotEquals:
		return current != want, nil
	case StringContains:
		return strings.Contains(current, want), nil
	case StringStartsWith:
		return strings.HasPrefix(current, want), nil
	case StringEndsWith:
		return strings.HasSuffix(current, want), nil
	}
	return false, fmt.Errorf("%w: string match %q", ErrUnknownKind, c.Op)
}

func strictLookup(vars VariableReader, name string, kind VariableKind) (Variable, error) {
	v, ok := vars.Lookup(name)
	if !ok {
		return Variable{}, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}
	if v.Kind != kind {
		return Variable{}, &TypeMismatchError{Variable: name, Want: kind, Got: string(v.Kind)}
	}
	return v, nil
}

// EvaluateAll AND-reduces conditions. An empty list is satisfied.
// Nil entries are skipped. Evaluation stops at the first false condition;
// problems met along the way are returned joined, for logging only.
func EvaluateAll(conditions []Condition, vars VariableReader) (bool, error) {
	var errs []error
	for i, c := range conditions {
		if c == nil {
			errs = append(errs, fmt.Errorf("condition %d: %w", i, ErrNilCondition))
			continue
		}
		ok, err := c.Evaluate(vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("condition %d (%s %s): %w", i, c.Type(), c.VariableName(), err))
		}
		if !ok {
			return false, errors.Join(errs...)
		}
	}
	return true, errors.Join(errs...)
}
