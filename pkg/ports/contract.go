package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractBlackboard() *domain.Blackboard {
	return domain.NewBlackboard(
		domain.Variable{Name: "gold", Kind: domain.KindInt, Value: "42"},
		domain.Variable{Name: "rep", Kind: domain.KindFloat, Value: "0.5"},
		domain.Variable{Name: "met_king", Kind: domain.KindBool, Value: "true"},
		domain.Variable{Name: "mood", Kind: domain.KindString, Value: "calm"},
	)
}

// RunBlackboardStoreContract runs a suite of tests to verify that a BlackboardStore
// implementation adheres to the defined interface contract.
func RunBlackboardStoreContract(t *testing.T, store BlackboardStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		vars := contractBlackboard()

		err := store.Save(ctx, docID, vars)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, vars.Variables(), loaded.Variables(), "kinds, values and order survive")

		require.NoError(t, loaded.Set("gold", 1))
		again, err := store.Load(ctx, docID)
		require.NoError(t, err)
		gold, _ := again.Int("gold")
		assert.Equal(t, int64(42), gold, "loaded blackboards must not alias the stored one")
	})

	t.Run("Overwrite", func(t *testing.T) {
		vars := contractBlackboard()
		require.NoError(t, vars.Set("gold", 7))
		require.NoError(t, store.Save(ctx, docID, vars))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		gold, _ := loaded.Int("gold")
		assert.Equal(t, int64(7), gold)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrBlackboardNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, docID, contractBlackboard())
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrBlackboardNotFound, "Load after Delete should return ErrBlackboardNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		_ = store.Save(ctx, id1, contractBlackboard())
		_ = store.Save(ctx, id2, contractBlackboard())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
