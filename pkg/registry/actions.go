package registry

import (
	"fmt"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
)

// NewActions returns a registry holding the built-in actions.
func NewActions() *Registry[domain.Action] {
	r := New[domain.Action]()
	r.Register(domain.ActionSetBool, decodeSetBool)
	r.Register(domain.ActionSetString, decodeSetString)
	r.Register(domain.ActionInt, decodeIntAction)
	r.Register(domain.ActionFloat, decodeFloatAction)
	return r
}

// EncodeAction returns the Spec of an action.
func EncodeAction(a domain.Action) (Spec, error) {
	switch a := a.(type) {
	case Encodable:
		return a.Spec()
	case *domain.SetBoolAction:
		return Spec{Type: a.Type(), Variable: a.Variable, Op: string(domain.OpSet), Value: strconv.FormatBool(a.Value)}, nil
	case *domain.SetStringAction:
		return Spec{Type: a.Type(), Variable: a.Variable, Op: string(domain.OpSet), Value: a.Value}, nil
	case *domain.IntAction:
		return Spec{Type: a.Type(), Variable: a.Variable, Op: string(a.Op), Value: strconv.FormatInt(a.Value, 10)}, nil
	case *domain.FloatAction:
		return Spec{Type: a.Type(), Variable: a.Variable, Op: string(a.Op), Value: strconv.FormatFloat(a.Value, 'g', -1, 64)}, nil
	case nil:
		return Spec{}, domain.ErrNilAction
	}
	return Spec{}, fmt.Errorf("%w: action %T", domain.ErrUnknownKind, a)
}

func decodeSetBool(s Spec) (domain.Action, error) {
	v, err := strconv.ParseBool(s.Value)
	if err != nil {
		return nil, fmt.Errorf("set_bool on %s: %w", s.Variable, err)
	}
	return &domain.SetBoolAction{Variable: s.Variable, Value: v}, nil
}

func decodeSetString(s Spec) (domain.Action, error) {
	return &domain.SetStringAction{Variable: s.Variable, Value: s.Value}, nil
}

func decodeIntAction(s Spec) (domain.Action, error) {
	op, err := parseOp(s.Op)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("int action on %s: %w", s.Variable, err)
	}
	return &domain.IntAction{Variable: s.Variable, Op: op, Value: v}, nil
}

func decodeFloatAction(s Spec) (domain.Action, error) {
	op, err := parseOp(s.Op)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("float action on %s: %w", s.Variable, err)
	}
	return &domain.FloatAction{Variable: s.Variable, Op: op, Value: v}, nil
}

func parseOp(s string) (domain.Arithmetic, error) {
	if s == "" {
		return domain.OpSet, nil
	}
	return domain.ParseArithmetic(s)
}
