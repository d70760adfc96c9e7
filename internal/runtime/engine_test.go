package runtime_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	doc   *domain.Document
	nodes map[string]domain.Node
}

func (f *fixture) add(t *testing.T, n domain.Node) domain.Node {
	t.Helper()
	require.NoError(t, f.doc.AddNode(n))
	f.nodes[n.Base().ID] = n
	return n
}

func (f *fixture) connect(t *testing.T, from string, port int, to string, guards ...domain.Condition) {
	t.Helper()
	_, err := f.doc.Connect(f.nodes[from], port, f.nodes[to], guards...)
	require.NoError(t, err)
}

func speech(id, text string, actions ...domain.Action) *domain.SpeechNode {
	return &domain.SpeechNode{NodeBase: domain.NodeBase{ID: id, Actions: actions}, Text: text}
}

// shopkeeper: Root -> "Hello" -> Branch(gold > 10) -> "Rich" | "Poor".
func shopkeeper(t *testing.T, gold int) *fixture {
	t.Helper()
	f := &fixture{doc: domain.NewDocument("shop"), nodes: map[string]domain.Node{}}
	require.NoError(t, f.doc.Schema.Define("gold", domain.KindInt, gold))

	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, speech("hello", "Hello"))
	f.add(t, &domain.BranchNode{
		NodeBase:   domain.NodeBase{ID: "check"},
		Conditions: []domain.Condition{&domain.IntCondition{Variable: "gold", Op: domain.Greater, Value: 10}},
	})
	f.add(t, speech("rich", "Rich"))
	f.add(t, speech("poor", "Poor"))

	f.connect(t, "root", 0, "hello")
	f.connect(t, "hello", 0, "check")
	f.connect(t, "check", domain.PortTrue, "rich")
	f.connect(t, "check", domain.PortFalse, "poor")
	return f
}

func speechText(t *testing.T, step domain.Step) string {
	t.Helper()
	n, ok := step.Speech()
	require.True(t, ok, "expected a speech step, got %s", step.Status)
	return n.Text
}

func TestEngine_StartWithoutRootFails(t *testing.T) {
	engine := runtime.NewEngine()
	doc := domain.NewDocument("empty")

	step, err := engine.Start(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrNoRoot)
	assert.Equal(t, domain.EndNotStarted, step.Reason)

	_, active := engine.Current()
	assert.False(t, active)

	t.Run("active session survives", func(t *testing.T) {
		ctx := context.Background()
		engine := runtime.NewEngine()
		_, err := engine.Start(ctx, shopkeeper(t, 5).doc)
		require.NoError(t, err)

		_, err = engine.Start(ctx, domain.NewDocument("empty"))
		assert.ErrorIs(t, err, domain.ErrNoRoot)

		step, active := engine.Current()
		require.True(t, active)
		assert.Equal(t, domain.AwaitingSpeech, step.Status)
		assert.Equal(t, "Hello", speechText(t, step))

		step, err = engine.Resume(ctx, domain.Advance())
		require.NoError(t, err)
		assert.Equal(t, "Poor", speechText(t, step))
	})
}

func TestEngine_BranchSelectsPort(t *testing.T) {
	tests := []struct {
		name string
		gold int
		want string
	}{
		{"false port", 5, "Poor"},
		{"true port", 20, "Rich"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine := runtime.NewEngine()

			step, err := engine.Start(ctx, shopkeeper(t, tt.gold).doc)
			require.NoError(t, err)
			assert.Equal(t, "Hello", speechText(t, step))

			step, err = engine.Resume(ctx, domain.Advance())
			require.NoError(t, err)
			assert.Equal(t, tt.want, speechText(t, step))

			step, err = engine.Resume(ctx, domain.Advance())
			require.NoError(t, err)
			assert.True(t, step.IsEnded())
			assert.Equal(t, domain.EndNoConnection, step.Reason)
		})
	}
}

func TestEngine_BranchAtThreshold(t *testing.T) {
	tests := []struct {
		gold int
		want string
	}{
		{5, "Poor"},
		{9, "Poor"},
		{10, "Rich"},
		{11, "Rich"},
	}
	for _, tt := range tests {
		t.Run("gold="+strconv.Itoa(tt.gold), func(t *testing.T) {
			ctx := context.Background()
			f := shopkeeper(t, tt.gold)
			f.nodes["check"].(*domain.BranchNode).Conditions = []domain.Condition{
				&domain.IntCondition{Variable: "gold", Op: domain.GreaterOrEqual, Value: 10},
			}
			engine := runtime.NewEngine()

			_, err := engine.Start(ctx, f.doc)
			require.NoError(t, err)
			step, err := engine.Resume(ctx, domain.Advance())
			require.NoError(t, err)
			assert.Equal(t, tt.want, speechText(t, step))
		})
	}
}

func TestEngine_OptionGuardsAndChoice(t *testing.T) {
	ctx := context.Background()
	f := &fixture{doc: domain.NewDocument("king"), nodes: map[string]domain.Node{}}
	require.NoError(t, f.doc.Schema.Define("met_king", domain.KindBool, false))

	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, &domain.OptionNode{
		NodeBase: domain.NodeBase{ID: "ask"},
		Options: []*domain.Option{
			{Text: "Leave"},
			{Text: "Bow", Conditions: []domain.Condition{&domain.BoolCondition{Variable: "met_king", Check: domain.IsTrue}}},
			{Text: "Wave"},
		},
	})
	f.add(t, speech("bye", "Bye"))
	f.add(t, speech("wave", "Hi there"))
	f.connect(t, "root", 0, "ask")
	f.connect(t, "ask", 0, "bye")
	f.connect(t, "ask", 2, "wave")

	engine := runtime.NewEngine()
	step, err := engine.Start(ctx, f.doc)
	require.NoError(t, err)
	require.Equal(t, domain.AwaitingChoice, step.Status)
	require.Len(t, step.Options, 2)
	assert.Equal(t, 0, step.Options[0].Index)
	assert.Equal(t, 2, step.Options[1].Index, "absolute index is kept")

	t.Run("hidden option is rejected", func(t *testing.T) {
		_, err := engine.Resume(ctx, domain.Choose(1))
		assert.ErrorIs(t, err, domain.ErrInvalidChoice)
		current, active := engine.Current()
		assert.True(t, active)
		assert.Equal(t, domain.AwaitingChoice, current.Status)
	})

	t.Run("advance while choosing is rejected", func(t *testing.T) {
		_, err := engine.Resume(ctx, domain.Advance())
		assert.ErrorIs(t, err, domain.ErrUnexpectedInput)
	})

	step, err = engine.Resume(ctx, domain.Choose(2))
	require.NoError(t, err)
	assert.Equal(t, "Hi there", speechText(t, step))
}

func TestEngine_NoAvailableOptionsEnds(t *testing.T) {
	f := &fixture{doc: domain.NewDocument("locked"), nodes: map[string]domain.Node{}}
	require.NoError(t, f.doc.Schema.Define("key", domain.KindBool, false))
	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, &domain.OptionNode{
		NodeBase: domain.NodeBase{ID: "door"},
		Options:  []*domain.Option{{Text: "Open", Conditions: []domain.Condition{&domain.BoolCondition{Variable: "key", Check: domain.IsTrue}}}},
	})
	f.connect(t, "root", 0, "door")

	step, err := runtime.NewEngine().Start(context.Background(), f.doc)
	require.NoError(t, err)
	assert.Equal(t, domain.EndNoOptions, step.Reason)
}

func TestEngine_ConnectionGuardBlocks(t *testing.T) {
	f := &fixture{doc: domain.NewDocument("gate"), nodes: map[string]domain.Node{}}
	require.NoError(t, f.doc.Schema.Define("mood", domain.KindString, "grumpy"))
	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, speech("greet", "Welcome"))
	f.connect(t, "root", 0, "greet",
		&domain.StringCondition{Variable: "mood", Op: domain.StringEquals, Value: "happy"})

	step, err := runtime.NewEngine().Start(context.Background(), f.doc)
	require.NoError(t, err)
	assert.True(t, step.IsEnded())
	assert.Equal(t, domain.EndNoConnection, step.Reason)
}

func TestEngine_StatePersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	f := &fixture{doc: domain.NewDocument("tavern"), nodes: map[string]domain.Node{}}
	require.NoError(t, f.doc.Schema.Define("visits", domain.KindInt, 0))
	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, speech("hi", "Visit number {visits}",
		&domain.IntAction{Variable: "visits", Op: domain.OpAdd, Value: 1}))
	f.connect(t, "root", 0, "hi")

	engine := runtime.NewEngine()
	for want := 1; want <= 3; want++ {
		step, err := engine.Start(ctx, f.doc)
		require.NoError(t, err)
		visits, err := domain.Typed[int](engine, "visits")
		require.NoError(t, err)
		assert.Equal(t, want, visits)
		assert.Equal(t, "Visit number "+strconv.Itoa(want), engine.Render(speechText(t, step)))
		require.NoError(t, engine.End(ctx))
	}

	schemaVisits, _ := f.doc.Schema.Int("visits")
	assert.Equal(t, int64(0), schemaVisits, "the schema is never mutated")

	require.NoError(t, engine.ClearRuntimeState(ctx, f.doc))
	_, err := engine.Start(ctx, f.doc)
	require.NoError(t, err)
	visits, _ := domain.Typed[int](engine, "visits")
	assert.Equal(t, 1, visits)
}

func TestEngine_CycleHitsStepBudget(t *testing.T) {
	f := &fixture{doc: domain.NewDocument("loop"), nodes: map[string]domain.Node{}}
	f.add(t, &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}})
	f.add(t, &domain.BranchNode{NodeBase: domain.NodeBase{ID: "a"}})
	f.add(t, &domain.BranchNode{NodeBase: domain.NodeBase{ID: "b"}})
	f.connect(t, "root", 0, "a")
	f.connect(t, "a", domain.PortTrue, "b")
	f.connect(t, "b", domain.PortTrue, "a")

	engine := runtime.NewEngine(runtime.WithStepBudget(16))
	step, err := engine.Start(context.Background(), f.doc)
	require.NoError(t, err)
	assert.Equal(t, domain.EndStepBudget, step.Reason)
	assert.ErrorIs(t, step.Err, domain.ErrStepBudgetExceeded)
}

func TestEngine_CorruptedConnectionsArePurged(t *testing.T) {
	doc := domain.NewDocument("broken")
	root := &domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}}
	hello := speech("hello", "Hello")
	doc.Restore([]domain.Node{root, hello}, []*domain.Connection{
		{ID: "dangling", From: "root", FromPort: 0, To: "ghost"},
		{ID: "ok", From: "root", FromPort: 0, To: "hello"},
	})

	step, err := runtime.NewEngine().Start(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello", speechText(t, step))
	assert.Len(t, doc.Connections(), 1)
	assert.True(t, doc.Dirty())
}

func TestEngine_UnknownKindEnds(t *testing.T) {
	doc := domain.NewDocument("future")
	doc.Restore([]domain.Node{
		&domain.RootNode{NodeBase: domain.NodeBase{ID: "root"}},
		&domain.OpaqueNode{NodeBase: domain.NodeBase{ID: "cutscene"}, Type: "cutscene"},
	}, nil)
	require.NoError(t, doc.AddConnection(&domain.Connection{From: "root", To: "cutscene"}))

	step, err := runtime.NewEngine().Start(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.EndUnknownKind, step.Reason)
	assert.ErrorIs(t, step.Err, domain.ErrUnknownKind)
}

func TestEngine_CancelledContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step, err := runtime.NewEngine().Start(ctx, shopkeeper(t, 5).doc)
	require.NoError(t, err)
	assert.Equal(t, domain.EndContextCancel, step.Reason)
}

func TestEngine_EndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := runtime.NewEngine()
	require.NoError(t, engine.End(ctx))

	_, err := engine.Start(ctx, shopkeeper(t, 5).doc)
	require.NoError(t, err)
	require.NoError(t, engine.End(ctx))
	require.NoError(t, engine.End(ctx))

	step, active := engine.Current()
	assert.False(t, active)
	assert.Equal(t, domain.EndExternal, step.Reason)

	_, err = engine.Resume(ctx, domain.Advance())
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestEngine_StartSupersedesActiveSession(t *testing.T) {
	ctx := context.Background()
	var reasons []domain.EndReason
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) { reasons = append(reasons, e.Reason) },
	}))

	_, err := engine.Start(ctx, shopkeeper(t, 5).doc)
	require.NoError(t, err)
	_, err = engine.Start(ctx, shopkeeper(t, 20).doc)
	require.NoError(t, err)

	assert.Equal(t, []domain.EndReason{domain.EndSuperseded}, reasons)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	ctx := context.Background()
	f := shopkeeper(t, 5)
	f.nodes["hello"].Base().Actions = []domain.Action{&domain.IntAction{Variable: "gold", Op: domain.OpAdd, Value: 1}}

	var trace []string
	var diffs []*domain.BlackboardDiff
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) { trace = append(trace, "start") },
		OnNodeEnter:    func(_ context.Context, e *domain.NodeEvent) { trace = append(trace, "enter:"+e.NodeID) },
		OnNodeLeave:    func(_ context.Context, e *domain.NodeEvent) { trace = append(trace, "leave:"+e.NodeID) },
		OnSessionEnd:   func(_ context.Context, e *domain.SessionEvent) { trace = append(trace, "end") },
		OnVariablesChanged: func(_ context.Context, e *domain.VariablesEvent) {
			diffs = append(diffs, e.Diff)
		},
	}))

	_, err := engine.Start(ctx, f.doc)
	require.NoError(t, err)
	_, err = engine.Resume(ctx, domain.Advance())
	require.NoError(t, err)
	require.NoError(t, engine.End(ctx))

	assert.Equal(t, []string{
		"start",
		"enter:root", "leave:root",
		"enter:hello", "leave:hello",
		"enter:check", "leave:check",
		"enter:poor", "leave:poor",
		"end",
	}, trace)
	require.Len(t, diffs, 1)
	assert.Equal(t, domain.ValueChange{Old: int64(5), New: int64(6)}, diffs[0].Changed["gold"])
}

func TestEngine_VariableAPI(t *testing.T) {
	ctx := context.Background()
	engine := runtime.NewEngine()

	_, ok := engine.GetVariable("gold")
	assert.False(t, ok, "no session, no blackboard")
	assert.ErrorIs(t, engine.SetVariable(ctx, "gold", 1), domain.ErrNoActiveSession)

	_, err := engine.Start(ctx, shopkeeper(t, 5).doc)
	require.NoError(t, err)

	require.NoError(t, engine.SetVariable(ctx, "gold", 50))
	gold, ok := engine.GetVariable("gold")
	require.True(t, ok)
	assert.Equal(t, int64(50), gold)

	assert.ErrorIs(t, engine.SetVariable(ctx, "silver", 1), domain.ErrVariableNotFound)
	_, ok = engine.GetVariable("silver")
	assert.False(t, ok, "unknown variables are never created")

	var mismatch *domain.TypeMismatchError
	assert.ErrorAs(t, engine.SetVariable(ctx, "gold", "lots"), &mismatch)
	gold, _ = engine.GetVariable("gold")
	assert.Equal(t, int64(50), gold, "failed writes leave the value unchanged")

	step, err := engine.Resume(ctx, domain.Advance())
	require.NoError(t, err)
	assert.Equal(t, "Rich", speechText(t, step), "branches see API writes")
	assert.Equal(t, "You have 50 gold and {silver}", engine.Render("You have {gold} gold and {silver}"))

	t.Run("idle writes reach the last document", func(t *testing.T) {
		doc := shopkeeper(t, 5).doc
		require.NoError(t, engine.End(ctx))
		_, err := engine.Start(ctx, doc)
		require.NoError(t, err)
		require.NoError(t, engine.End(ctx))

		require.NoError(t, engine.SetVariable(ctx, "gold", 99))

		_, err = engine.Start(ctx, doc)
		require.NoError(t, err)
		step, err := engine.Resume(ctx, domain.Advance())
		require.NoError(t, err)
		assert.Equal(t, "Rich", speechText(t, step))
	})
}
