package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := NewMockStore()
	mw, err := middleware.NewPIIMiddleware([]string{"password", "^player_email$", "ssn"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	vars := domain.NewBlackboard(
		domain.Variable{Name: "player_name", Kind: domain.KindString, Value: "jdoe"},
		domain.Variable{Name: "player_email", Kind: domain.KindString, Value: "jdoe@example.com"},
		domain.Variable{Name: "vault_password", Kind: domain.KindString, Value: "secret123"},
		domain.Variable{Name: "ssn_known", Kind: domain.KindBool, Value: "true"},
	)
	require.NoError(t, store.Save(ctx, "profile", vars))

	password, _ := vars.String("vault_password")
	assert.Equal(t, "secret123", password, "the live blackboard is not modified")

	stored, err := underlying.Load(ctx, "profile")
	require.NoError(t, err)
	snapshot := stored.Snapshot()
	assert.Equal(t, "jdoe", snapshot["player_name"])
	assert.Equal(t, middleware.Mask, snapshot["player_email"])
	assert.Equal(t, middleware.Mask, snapshot["vault_password"])
	assert.Equal(t, true, snapshot["ssn_known"], "non-string kinds are left alone")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	underlying := NewMockStore()
	pii, err := middleware.NewPIIMiddleware([]string{"password"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	require.NoError(t, store.Save(context.Background(), "vault", secrets("hunter2")))

	loaded, err := store.Load(context.Background(), "vault")
	require.NoError(t, err)
	password, _ := loaded.String("password")
	assert.Equal(t, middleware.Mask, password, "masking happens before encryption")
}
