package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntAction(t *testing.T) {
	tests := []struct {
		op   Arithmetic
		v    int64
		want int64
	}{
		{OpSet, 3, 3},
		{OpAdd, 3, 8},
		{OpSubtract, 7, -2},
		{OpMultiply, 3, 15},
		{OpDivide, 2, 2},
		{OpDivide, 0, 5},
	}
	for _, tt := range tests {
		b := newTestBlackboard(t) // gold = 5
		require.NoError(t, (&IntAction{Variable: "gold", Op: tt.op, Value: tt.v}).Apply(b))
		got, _ := b.Int("gold")
		assert.Equal(t, tt.want, got, "%s %d", tt.op, tt.v)
	}
}

func TestFloatAction_DivideByZero(t *testing.T) {
	b := newTestBlackboard(t)
	require.NoError(t, (&FloatAction{Variable: "reputation", Op: OpDivide, Value: 0}).Apply(b))
	got, _ := b.Float("reputation")
	assert.Equal(t, 0.5, got)

	require.NoError(t, (&FloatAction{Variable: "reputation", Op: OpMultiply, Value: 3}).Apply(b))
	got, _ = b.Float("reputation")
	assert.Equal(t, 1.5, got)
}

func TestSetActions(t *testing.T) {
	b := newTestBlackboard(t)
	require.NoError(t, (&SetBoolAction{Variable: "met_king", Value: true}).Apply(b))
	require.NoError(t, (&SetStringAction{Variable: "mood", Value: "Happy"}).Apply(b))

	met, _ := b.Bool("met_king")
	mood, _ := b.String("mood")
	assert.True(t, met)
	assert.Equal(t, "Happy", mood)
}

func TestExecuteAll_ContinuesPastFailures(t *testing.T) {
	b := newTestBlackboard(t)
	actions := []Action{
		&IntAction{Variable: "gold", Op: OpAdd, Value: 1},
		nil,
		&IntAction{Variable: "mood", Op: OpAdd, Value: 1}, // wrong kind: no-op
		&IntAction{Variable: "ghost", Op: OpAdd, Value: 1},
		&IntAction{Variable: "gold", Op: OpMultiply, Value: 2},
	}

	err := ExecuteAll(actions, b)
	assert.ErrorIs(t, err, ErrNilAction)
	assert.ErrorIs(t, err, ErrVariableNotFound)

	gold, _ := b.Int("gold")
	assert.Equal(t, int64(12), gold)
	mood, _ := b.String("mood")
	assert.Equal(t, "Grumpy", mood)
	assert.False(t, b.Has("ghost"))
}
