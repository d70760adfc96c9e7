package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Action is a mutation applied to the runtime blackboard when a node is entered.
type Action interface {
	// Type is the stable tag used to serialize the action.
	Type() string
	VariableName() string
	Apply(vars *Blackboard) error
}

// Arithmetic is the operator of numeric actions.
type Arithmetic string

const (
	OpSet      Arithmetic = "set"
	OpAdd      Arithmetic = "add"
	OpSubtract Arithmetic = "subtract"
	OpMultiply Arithmetic = "multiply"
	OpDivide   Arithmetic = "divide"
)

// ParseArithmetic accepts operator names and their symbols.
func ParseArithmetic(s string) (Arithmetic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "set", "=":
		return OpSet, nil
	case "add", "+", "+=":
		return OpAdd, nil
	case "subtract", "sub", "-", "-=":
		return OpSubtract, nil
	case "multiply", "mul", "*", "*=":
		return OpMultiply, nil
	case "divide", "div", "/", "/=":
		return OpDivide, nil
	}
	return "", fmt.Errorf("%w: arithmetic %q", ErrUnknownKind, s)
}

const (
	ActionSetBool   = "set_bool"
	ActionSetString = "set_string"
	ActionInt       = "int"
	ActionFloat     = "float"
)

// SetBoolAction assigns a constant to a bool variable.
type SetBoolAction struct {
	Variable string
	Value    bool
}

func (a *SetBoolAction) Type() string         { return ActionSetBool }
func (a *SetBoolAction) VariableName() string { return a.Variable }

func (a *SetBoolAction) Apply(vars *Blackboard) error {
	if _, err := strictLookup(vars, a.Variable, KindBool); err != nil {
		return err
	}
	return vars.Set(a.Variable, a.Value)
}

// SetStringAction assigns a constant to a string variable.
type SetStringAction struct {
	Variable string
	Value    string
}

func (a *SetStringAction) Type() string         { return ActionSetString }
func (a *SetStringAction) VariableName() string { return a.Variable }

func (a *SetStringAction) Apply(vars *Blackboard) error {
	if _, err := strictLookup(vars, a.Variable, KindString); err != nil {
		return err
	}
	return vars.Set(a.Variable, a.Value)
}

// IntAction applies an arithmetic operator to an int variable.
// Division is integer division; dividing by zero is a no-op.
type IntAction struct {
	Variable string
	Op       Arithmetic
	Value    int64
}

func (a *IntAction) Type() string         { return ActionInt }
func (a *IntAction) VariableName() string { return a.Variable }

func (a *IntAction) Apply(vars *Blackboard) error {
	if _, err := strictLookup(vars, a.Variable, KindInt); err != nil {
		return err
	}
	current, err := vars.Int(a.Variable)
	if err != nil {
		return err
	}
	next := current
	switch a.Op {
	case OpSet:
		next = a.Value
	case OpAdd:
		next = current + a.Value
	case OpSubtract:
		next = current - a.Value
	case OpMultiply:
		next = current * a.Value
	case OpDivide:
		if a.Value == 0 {
			return nil
		}
		next = current / a.Value
	default:
		return fmt.Errorf("%w: arithmetic %q", ErrUnknownKind, a.Op)
	}
	return vars.Set(a.Variable, next)
}

// FloatAction applies an arithmetic operator to a float variable.
// Dividing by zero is a no-op.
type FloatAction struct {
	Variable string
	Op       Arithmetic
	Value    float64
}

func (a *FloatAction) Type() string         { return ActionFloat }
func (a *FloatAction) VariableName() string { return a.Variable }

func (a *FloatAction) Apply(vars *Blackboard) error {
	if _, err := strictLookup(vars, a.Variable, KindFloat); err != nil {
		return err
	}
	current, err := vars.Float(a.Variable)
	if err != nil {
		return err
	}
	next := current
	switch a.Op {
	case OpSet:
		next = a.Value
	case OpAdd:
		next = current + a.Value
	case OpSubtract:
		next = current - a.Value
	case OpMultiply:
		next = current * a.Value
	case OpDivide:
		if a.Value == 0 {
			return nil
		}
		next = current / a.Value
	default:
		return fmt.Errorf("%w: arithmetic %q", ErrUnknownKind, a.Op)
	}
	return vars.Set(a.Variable, next)
}

// ExecuteAll applies actions in order. Nil entries and failing actions are
// skipped; their errors are returned joined and never stop the remaining actions.
func ExecuteAll(actions []Action, vars *Blackboard) error {
	var errs []error
	for i, a := range actions {
		if a == nil {
			errs = append(errs, fmt.Errorf("action %d: %w", i, ErrNilAction))
			continue
		}
		if err := a.Apply(vars); err != nil {
			errs = append(errs, fmt.Errorf("action %d (%s %s): %w", i, a.Type(), a.VariableName(), err))
		}
	}
	return errors.Join(errs...)
}
