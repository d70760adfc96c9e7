package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := New(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "parley.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunBlackboardStoreContract(t, store)
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := New(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunBlackboardStoreContract(t, store)
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{dsn: "sqlite://:memory:", want: ":memory:"},
		{dsn: "sqlite:///var/lib/parley.db", want: "/var/lib/parley.db"},
		{dsn: "sqlite://data/parley.db", want: "./data/parley.db"},
		{dsn: "sqlite://./parley.db?_pragma=foreign_keys(1)", want: "./parley.db?_pragma=foreign_keys(1)"},
		{dsn: "sqlite://my%20saves.db", want: "./my saves.db"},
		{dsn: "postgres://localhost/db", wantErr: true},
		{dsn: "sqlite://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := parseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
