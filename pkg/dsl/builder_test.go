package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shop() *Builder {
	b := New("shop").Name("Shopkeeper")
	b.Var("gold", domain.KindInt, 5)

	b.Root().Go("greet")

	b.Speech("greet", "Welcome, traveller. You carry {gold} gold.").
		Speaker("Merchant").
		Go("menu")

	b.Options("menu").
		Option("Buy the sword", "buy", Int("gold", domain.GreaterOrEqual, 10)).
		Selected("on_buy").
		Option("Leave", "bye").
		Timeout(10, 1)

	b.Speech("buy", "A fine choice.").
		Do(IntOp("gold", domain.OpSubtract, 10))

	b.Speech("bye", "Farewell.")
	return b
}

func TestBuilder_Structure(t *testing.T) {
	doc, err := shop().Build()
	require.NoError(t, err)

	assert.Equal(t, "shop", doc.ID)
	assert.Equal(t, "Shopkeeper", doc.Name)
	assert.Len(t, doc.Nodes(), 5)
	assert.Len(t, doc.Connections(), 4)
	assert.False(t, doc.Dirty())

	root, ok := doc.Root()
	require.True(t, ok)
	next, ok := doc.NextNode(root.Base().ID, 0)
	require.True(t, ok)
	assert.Equal(t, "greet", next.Base().ID)

	n, ok := doc.Node("menu")
	require.True(t, ok)
	menu := n.(*domain.OptionNode)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "on_buy", menu.Options[0].OnSelected)
	assert.Equal(t, 1, menu.DefaultOptionIndex)
	assert.InDelta(t, 10.0, menu.TimeoutSeconds, 0)

	leave, ok := doc.NextNode("menu", 1)
	require.True(t, ok)
	assert.Equal(t, "bye", leave.Base().ID)
}

func TestBuilder_Plays(t *testing.T) {
	ctx := context.Background()
	doc, err := shop().Build()
	require.NoError(t, err)

	engine := runtime.NewEngine()
	step, err := engine.Start(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Welcome, traveller. You carry 5 gold.", engine.Render(step.Node.(*domain.SpeechNode).Text))

	step, err = engine.Resume(ctx, domain.Advance())
	require.NoError(t, err)
	require.Equal(t, domain.AwaitingChoice, step.Status)
	require.Len(t, step.Options, 1, "the sword is out of reach")
	assert.Equal(t, 1, step.Options[0].Index)
}

func TestBuilder_Branch(t *testing.T) {
	b := New("gate")
	b.Var("has_key", domain.KindBool, true)
	b.Root().Go("check")
	b.Branch("check", IsTrue("has_key")).Then("open").Else("locked")
	b.Speech("open", "The gate opens.").Do(SetBool("has_key", false), SetText("mood", "relieved"))
	b.Speech("locked", "It is locked.")

	doc, err := b.Build()
	require.NoError(t, err)

	open, ok := doc.NextNode("check", domain.PortTrue)
	require.True(t, ok)
	assert.Equal(t, "open", open.Base().ID)
	locked, ok := doc.NextNode("check", domain.PortFalse)
	require.True(t, ok)
	assert.Equal(t, "locked", locked.Base().ID)
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		b := New("broken")
		b.Root().Go("nowhere")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("kind redeclared", func(t *testing.T) {
		b := New("broken")
		b.Speech("a", "one")
		b.Options("a")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrDuplicateNode)
	})

	t.Run("duplicate variable", func(t *testing.T) {
		b := New("broken")
		b.Var("gold", domain.KindInt, 1).Var("gold", domain.KindInt, 2)
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrVariableExists)
	})

	t.Run("invalid port", func(t *testing.T) {
		b := New("broken")
		b.Root().Go("x")
		b.Speech("x", "hi").Else("x")
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrInvalidPort)
	})
}

func TestBuilder_Loader(t *testing.T) {
	loader, err := shop().Loader()
	require.NoError(t, err)

	doc, err := loader.LoadDocument(context.Background(), "shop")
	require.NoError(t, err)
	assert.Len(t, doc.Nodes(), 5)
}
