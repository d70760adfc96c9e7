package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	old := NewBlackboard(
		Variable{Name: "gold", Kind: KindInt, Value: "5"},
		Variable{Name: "mood", Kind: KindString, Value: "calm"},
		Variable{Name: "gone", Kind: KindBool, Value: "true"},
	)

	tests := []struct {
		name string
		old  *Blackboard
		new  *Blackboard
		want *BlackboardDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  NewBlackboard(Variable{Name: "gold", Kind: KindInt, Value: "5"}),
			want: &BlackboardDiff{Added: map[string]any{"gold": int64(5)}},
		},
		{
			name: "No Changes",
			old:  old,
			new:  old.Clone(),
			want: nil,
		},
		{
			name: "Changed and Removed",
			old:  old,
			new: NewBlackboard(
				Variable{Name: "gold", Kind: KindInt, Value: "15"},
				Variable{Name: "mood", Kind: KindString, Value: "calm"},
			),
			want: &BlackboardDiff{
				Changed: map[string]ValueChange{"gold": {Old: int64(5), New: int64(15)}},
				Removed: []string{"gone"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.old, tt.new))
		})
	}
}

func TestDiff_JSON(t *testing.T) {
	old := NewBlackboard(Variable{Name: "gold", Kind: KindInt, Value: "5"})
	cur := old.Clone()
	require.NoError(t, cur.Set("gold", 6))

	data, err := json.Marshal(Diff(old, cur))
	require.NoError(t, err)
	assert.JSONEq(t, `{"changed":{"gold":{"old":5,"new":6}}}`, string(data))
}

func TestInterpolate(t *testing.T) {
	b := NewBlackboard(
		Variable{Name: "name", Kind: KindString, Value: "Ada"},
		Variable{Name: "gold", Kind: KindInt, Value: "12"},
	)

	out, missing := Interpolate("Hello {name}, you have { gold } coins and {gems} gems.", b)
	assert.Equal(t, "Hello Ada, you have 12 coins and {gems} gems.", out)
	assert.Equal(t, []string{"gems"}, missing)

	out, missing = Interpolate("plain", b)
	assert.Equal(t, "plain", out)
	assert.Nil(t, missing)
}
