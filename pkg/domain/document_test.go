package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, kind NodeKind) Node {
	t.Helper()
	n, err := NewNode(kind)
	require.NoError(t, err)
	return n
}

func TestDocument_SingleRoot(t *testing.T) {
	doc := NewDocument("d")
	require.NoError(t, doc.AddNode(mustNode(t, KindRoot)))
	assert.ErrorIs(t, doc.AddNode(mustNode(t, KindRoot)), ErrRootExists)
	assert.Len(t, doc.Nodes(), 1)
}

func TestDocument_RemoveNode(t *testing.T) {
	doc := NewDocument("d")
	root := mustNode(t, KindRoot)
	speech := mustNode(t, KindSpeech)
	require.NoError(t, doc.AddNode(root))
	require.NoError(t, doc.AddNode(speech))
	_, err := doc.Connect(root, 0, speech)
	require.NoError(t, err)

	assert.ErrorIs(t, doc.RemoveNode(root.Base().ID), ErrRootRemoval)

	require.NoError(t, doc.RemoveNode(speech.Base().ID))
	assert.Empty(t, doc.Connections(), "connections to the removed node are purged")
	_, ok := doc.Node(speech.Base().ID)
	assert.False(t, ok)
}

func TestDocument_SingleCapacityOverwrite(t *testing.T) {
	doc := NewDocument("d")
	root := mustNode(t, KindRoot)
	a := mustNode(t, KindSpeech)
	b := mustNode(t, KindSpeech)
	for _, n := range []Node{root, a, b} {
		require.NoError(t, doc.AddNode(n))
	}

	_, err := doc.Connect(root, 0, a)
	require.NoError(t, err)
	second, err := doc.Connect(root, 0, b)
	require.NoError(t, err)

	out := doc.Outgoing(root.Base().ID, 0)
	require.Len(t, out, 1)
	assert.Same(t, second, out[0])

	next, ok := doc.NextNode(root.Base().ID, 0)
	require.True(t, ok)
	assert.Equal(t, b.Base().ID, next.Base().ID)
}

func TestDocument_ConnectRejectsBadPorts(t *testing.T) {
	doc := NewDocument("d")
	root := mustNode(t, KindRoot)
	a := mustNode(t, KindSpeech)
	require.NoError(t, doc.AddNode(root))
	require.NoError(t, doc.AddNode(a))

	_, err := doc.Connect(root, 1, a)
	assert.ErrorIs(t, err, ErrInvalidPort)
	_, err = doc.Connect(a, 0, root)
	assert.ErrorIs(t, err, ErrInvalidPort, "root has no input")
}

func TestOptionNode_PortDerivation(t *testing.T) {
	doc := NewDocument("d")
	root := mustNode(t, KindRoot)
	opt := mustNode(t, KindOption).(*OptionNode)
	x := mustNode(t, KindSpeech)
	y := mustNode(t, KindSpeech)
	for _, n := range []Node{root, opt, x, y} {
		require.NoError(t, doc.AddNode(n))
	}
	assert.Equal(t, 0, opt.OutputPortCount())

	opt.AddOption(&Option{Text: "A"})
	opt.AddOption(&Option{Text: "B"})
	assert.Equal(t, 2, opt.OutputPortCount())

	_, err := doc.Connect(opt, 0, x)
	require.NoError(t, err)
	_, err = doc.Connect(opt, 1, y)
	require.NoError(t, err)

	require.NoError(t, doc.RemoveOption(opt.ID, 0))
	assert.Equal(t, 1, opt.OutputPortCount())

	out := doc.Outgoing(opt.ID, 0)
	require.Len(t, out, 1, "option B's connection moved to port 0")
	assert.Equal(t, y.Base().ID, out[0].To)
	assert.Empty(t, doc.Outgoing(opt.ID, 1))
}

func TestOptionNode_Available(t *testing.T) {
	b := newTestBlackboard(t) // gold = 5
	opt := mustNode(t, KindOption).(*OptionNode)
	opt.AddOption(&Option{Text: "Buy", Conditions: []Condition{&IntCondition{Variable: "gold", Op: GreaterOrEqual, Value: 10}}})
	opt.AddOption(&Option{Text: "Leave"})

	avail, err := opt.Available(b)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, 1, avail[0].Index, "absolute index is kept")
	assert.Equal(t, "Leave", avail[0].Option.Text)
}

func TestDocument_RepairPurgesCorruptedConnections(t *testing.T) {
	doc := NewDocument("d")
	root := mustNode(t, KindRoot)
	speech := mustNode(t, KindSpeech)
	doc.Restore([]Node{root, speech}, []*Connection{
		{ID: "ok", From: root.Base().ID, To: speech.Base().ID},
		{ID: "dangling", From: speech.Base().ID, To: "nowhere"},
		{ID: "badport", From: speech.Base().ID, FromPort: 3, To: root.Base().ID},
	})

	report := doc.Repair()

	assert.ElementsMatch(t, []string{"dangling", "badport"}, report.PurgedConnections)
	assert.Len(t, doc.Connections(), 1)
	assert.True(t, doc.Dirty())
	_, ok := doc.NextNode(speech.Base().ID, 0)
	assert.False(t, ok)
}

func TestDocument_RepairReassignsDuplicateGUIDs(t *testing.T) {
	doc := NewDocument("d")
	a := &SpeechNode{NodeBase: NodeBase{ID: "same"}}
	b := &SpeechNode{NodeBase: NodeBase{ID: "same"}}
	c := &SpeechNode{}
	doc.Restore([]Node{a, b, c}, nil)

	report := doc.Repair()

	require.Len(t, report.ReassignedNodes, 2)
	assert.Equal(t, "same", a.ID)
	assert.NotEqual(t, "same", b.ID)
	assert.NotEmpty(t, c.ID)
	assert.True(t, doc.Dirty())

	doc.MarkClean()
	assert.False(t, doc.Repair().Changed())
	assert.False(t, doc.Dirty())
}

func TestDocument_Validate(t *testing.T) {
	doc := NewDocument("d")
	speech := mustNode(t, KindSpeech)
	require.NoError(t, doc.AddNode(speech))

	report := doc.Validate()
	assert.True(t, report.MissingRoot)
	assert.Error(t, report.Err())

	root := mustNode(t, KindRoot)
	orphan := mustNode(t, KindSpeech)
	require.NoError(t, doc.AddNode(root))
	require.NoError(t, doc.AddNode(orphan))
	_, err := doc.Connect(root, 0, speech)
	require.NoError(t, err)

	report = doc.Validate()
	assert.False(t, report.MissingRoot)
	assert.Equal(t, []string{orphan.Base().ID}, report.Unreachable)
	assert.False(t, report.Valid())
}

func TestBranchNode_Evaluate(t *testing.T) {
	b := newTestBlackboard(t)

	empty := &BranchNode{}
	port, err := empty.Evaluate(b)
	require.NoError(t, err)
	assert.Equal(t, PortTrue, port, "no conditions always takes the true port")

	rich := &BranchNode{Conditions: []Condition{&IntCondition{Variable: "gold", Op: GreaterOrEqual, Value: 10}}}
	port, _ = rich.Evaluate(b)
	assert.Equal(t, PortFalse, port)
}
