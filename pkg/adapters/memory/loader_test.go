package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T, id string) *domain.Document {
	t.Helper()
	doc := domain.NewDocument(id)
	require.NoError(t, doc.AddNode(&domain.RootNode{NodeBase: domain.NodeBase{ID: id + "-root"}}))
	return doc
}

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(newDoc(t, "intro"), newDoc(t, "shop"))
	require.NoError(t, err)

	contract.DocumentLoaderContractTest(t, loader, []string{"intro", "shop"})
}

func TestInMemoryLoader_ReturnsCopies(t *testing.T) {
	loader, err := memory.NewLoader(newDoc(t, "intro"))
	require.NoError(t, err)

	first, err := loader.LoadDocument(context.Background(), "intro")
	require.NoError(t, err)
	require.NoError(t, first.AddNode(&domain.SpeechNode{NodeBase: domain.NodeBase{ID: "extra"}}))

	second, err := loader.LoadDocument(context.Background(), "intro")
	require.NoError(t, err)
	assert.Len(t, second.Nodes(), 1)
}
