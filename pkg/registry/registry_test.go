package registry_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionRoundTrip(t *testing.T) {
	reg := registry.NewConditions()
	conds := []domain.Condition{
		&domain.BoolCondition{Variable: "met_king", Check: domain.IsFalse},
		&domain.IntCondition{Variable: "gold", Op: domain.GreaterOrEqual, Value: 10},
		&domain.FloatCondition{Variable: "rep", Op: domain.Equal, Value: 0.25, Tolerance: 0.01},
		&domain.StringCondition{Variable: "mood", Op: domain.StringContains, Value: "ang", CaseSensitive: true},
	}
	for _, c := range conds {
		spec, err := registry.EncodeCondition(c)
		require.NoError(t, err)
		got, err := reg.Decode(spec)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestActionRoundTrip(t *testing.T) {
	reg := registry.NewActions()
	actions := []domain.Action{
		&domain.SetBoolAction{Variable: "met_king", Value: true},
		&domain.SetStringAction{Variable: "mood", Value: "happy"},
		&domain.IntAction{Variable: "gold", Op: domain.OpSubtract, Value: 3},
		&domain.FloatAction{Variable: "rep", Op: domain.OpDivide, Value: 2},
	}
	for _, a := range actions {
		spec, err := registry.EncodeAction(a)
		require.NoError(t, err)
		got, err := reg.Decode(spec)
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := registry.NewConditions().Decode(registry.Spec{Type: "vector"})
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
	assert.Equal(t, []string{"bool", "float", "int", "string"}, registry.NewConditions().Tags())
}

type alwaysTrue struct{}

func (alwaysTrue) Type() string                                 { return "always" }
func (alwaysTrue) VariableName() string                         { return "" }
func (alwaysTrue) Evaluate(domain.VariableReader) (bool, error) { return true, nil }
func (alwaysTrue) Spec() (registry.Spec, error)                 { return registry.Spec{Type: "always"}, nil }

func TestRegister_CustomCondition(t *testing.T) {
	reg := registry.NewConditions()
	reg.Register("always", func(registry.Spec) (domain.Condition, error) { return alwaysTrue{}, nil })

	spec, err := registry.EncodeCondition(alwaysTrue{})
	require.NoError(t, err)
	c, err := reg.Decode(spec)
	require.NoError(t, err)
	ok, err := c.Evaluate(domain.NewBlackboard())
	require.NoError(t, err)
	assert.True(t, ok)
}
