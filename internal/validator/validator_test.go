package validator

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	b := dsl.New("clean")
	b.Var("gold", domain.KindInt, 3)
	b.Root().Go("hi")
	b.Speech("hi", "You have {gold} gold.").Go("menu")
	b.Options("menu").
		Option("Spend", "spend", dsl.Int("gold", domain.Greater, 0)).
		Option("Leave", "spend").
		Timeout(5, 1)
	b.Speech("spend", "Done.").Do(dsl.IntOp("gold", domain.OpSet, 0))

	doc, err := b.Build()
	require.NoError(t, err)

	res := Validate(doc)
	assert.True(t, res.Valid())
	assert.NoError(t, res.Err())
	assert.Empty(t, res.Warnings)
}

func TestValidate_Warnings(t *testing.T) {
	b := dsl.New("sloppy")
	b.Var("name", domain.KindString, "Ana")
	b.Root().Go("hi")
	b.Speech("hi", "Hello {nickname}.").Do(dsl.SetBool("name", true)).Go("menu")
	b.Options("menu").
		Option("Ask", "", dsl.Int("trust", domain.Greater, 2)).
		Timeout(3, 4)

	doc, err := b.Build()
	require.NoError(t, err)

	res := Validate(doc)
	assert.True(t, res.Valid(), "warnings do not invalidate a document")
	assert.ElementsMatch(t, []string{
		"speech 'hi': action expects bool but 'name' is string",
		"speech 'hi': placeholder {nickname} names no variable",
		"option 'menu': timeout set but default option 4 does not exist",
		"option 'menu': option 0: condition uses undeclared variable 'trust'",
		"option 'menu': option 0: leads nowhere",
	}, res.Warnings)
}

func TestValidate_TimeoutWithoutDefault(t *testing.T) {
	b := dsl.New("idle")
	b.Root().Go("menu")
	b.Options("menu").
		Option("Wait", "end").
		Timeout(3, -1)
	b.Speech("end", "Bye.")

	doc, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"option 'menu': timeout set without a default option, it never fires"}, Validate(doc).Warnings)
}

func TestValidate_Structure(t *testing.T) {
	doc := domain.NewDocument("orphans")
	require.NoError(t, doc.AddNode(&domain.SpeechNode{NodeBase: domain.NodeBase{ID: "lonely"}}))

	res := Validate(doc)
	assert.False(t, res.Valid())
	assert.True(t, res.Report.MissingRoot)
	assert.ErrorContains(t, res.Err(), "document has no root node")
}

func TestValidateAll(t *testing.T) {
	b := dsl.New("a")
	b.Root().Go("x")
	b.Speech("x", "ok")
	a, err := b.Build()
	require.NoError(t, err)

	broken := domain.NewDocument("b")

	loader, err := memory.NewLoader(a, broken)
	require.NoError(t, err)

	results, err := ValidateAll(context.Background(), loader)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocumentID)
	assert.True(t, results[0].Valid())
	assert.Equal(t, "b", results[1].DocumentID)
	assert.False(t, results[1].Valid())
}
