package registry

import (
	"fmt"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
)

// NewConditions returns a registry holding the built-in conditions.
func NewConditions() *Registry[domain.Condition] {
	r := New[domain.Condition]()
	r.Register(domain.ConditionBool, decodeBoolCondition)
	r.Register(domain.ConditionInt, decodeIntCondition)
	r.Register(domain.ConditionFloat, decodeFloatCondition)
	r.Register(domain.ConditionString, decodeStringCondition)
	return r
}

// EncodeCondition returns the Spec of a condition.
func EncodeCondition(c domain.Condition) (Spec, error) {
	switch c := c.(type) {
	case Encodable:
		return c.Spec()
	case *domain.BoolCondition:
		return Spec{Type: c.Type(), Variable: c.Variable, Op: string(c.Check)}, nil
	case *domain.IntCondition:
		return Spec{Type: c.Type(), Variable: c.Variable, Op: string(c.Op), Value: strconv.FormatInt(c.Value, 10)}, nil
	case *domain.FloatCondition:
		return Spec{
			Type:      c.Type(),
			Variable:  c.Variable,
			Op:        string(c.Op),
			Value:     strconv.FormatFloat(c.Value, 'g', -1, 64),
			Tolerance: c.Tolerance,
		}, nil
	case *domain.StringCondition:
		return Spec{
			Type:          c.Type(),
			Variable:      c.Variable,
			Op:            string(c.Op),
			Value:         c.Value,
			CaseSensitive: c.CaseSensitive,
		}, nil
	case nil:
		return Spec{}, domain.ErrNilCondition
	}
	return Spec{}, fmt.Errorf("%w: condition %T", domain.ErrUnknownKind, c)
}

func decodeBoolCondition(s Spec) (domain.Condition, error) {
	check := domain.BoolCheck(s.Op)
	switch check {
	case "", "true":
		check = domain.IsTrue
	case "false":
		check = domain.IsFalse
	case domain.IsTrue, domain.IsFalse:
	default:
		return nil, fmt.Errorf("%w: bool check %q", domain.ErrUnknownKind, s.Op)
	}
	return &domain.BoolCondition{Variable: s.Variable, Check: check}, nil
}

func decodeIntCondition(s Spec) (domain.Condition, error) {
	op, err := domain.ParseComparison(s.Op)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("int condition on %s: %w", s.Variable, err)
	}
	return &domain.IntCondition{Variable: s.Variable, Op: op, Value: v}, nil
}

func decodeFloatCondition(s Spec) (domain.Condition, error) {
	op, err := domain.ParseComparison(s.Op)
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("float condition on %s: %w", s.Variable, err)
	}
	return &domain.FloatCondition{Variable: s.Variable, Op: op, Value: v, Tolerance: s.Tolerance}, nil
}

func decodeStringCondition(s Spec) (domain.Condition, error) {
	op := domain.StringMatch(s.Op)
	switch op {
	case "":
		op = domain.StringEquals
	case domain.StringEquals, domain.StringNotEquals, domain.StringContains,
		domain.StringStartsWith, domain.StringEndsWith:
	default:
		return nil, fmt.Errorf("%w: string match %q", domain.ErrUnknownKind, s.Op)
	}
	return &domain.StringCondition{Variable: s.Variable, Op: op, Value: s.Value, CaseSensitive: s.CaseSensitive}, nil
}
