package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
	_ "github.com/dropDatabas3/clinicore/internal/store/adapters/bolt"
)

func connect(t *testing.T, path string) store.Handle {
	t.Helper()
	a, ok := store.GetAdapter("bolt")
	require.True(t, ok, "bolt adapter not registered")
	h, err := a.Connect(context.Background(), "gen", store.ConnectionConfig{Driver: "bolt", DSN: path})
	require.NoError(t, err)
	return h
}

func TestBoltStore_CRUD(t *testing.T) {
	ctx := context.Background()
	h := connect(t, filepath.Join(t.TempDir(), "tenants", "gen.db"))
	defer h.Close()

	assert.Equal(t, "bolt", h.Driver())
	assert.Equal(t, "gen", h.Key())

	_, err := h.Get(ctx, placement.Patient, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, id := range []string{"p2", "p1"} {
		require.NoError(t, h.Put(ctx, store.Record{
			Entity: placement.Patient,
			ID:     id,
			Data:   map[string]any{"name": "n-" + id, "age": 40},
		}))
	}

	got, err := h.Get(ctx, placement.Patient, "p1")
	require.NoError(t, err)
	assert.Equal(t, "n-p1", got.String("name"))
	assert.Equal(t, float64(40), got.Data["age"])

	list, err := h.List(ctx, placement.Patient, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)

	empty, err := h.List(ctx, placement.Invoice, store.All)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, h.Delete(ctx, placement.Patient, "p1"))
	assert.ErrorIs(t, h.Delete(ctx, placement.Patient, "p1"), store.ErrNotFound)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stm.db")

	h := connect(t, path)
	require.NoError(t, h.Put(ctx, store.Record{Entity: placement.Invoice, ID: "i1", Data: map[string]any{"total": 10.5}}))
	require.NoError(t, h.Close())

	h2 := connect(t, path)
	defer h2.Close()
	got, err := h2.Get(ctx, placement.Invoice, "i1")
	require.NoError(t, err)
	assert.Equal(t, 10.5, got.Data["total"])
}

func TestBoltAdapter_RequiresPath(t *testing.T) {
	a, ok := store.GetAdapter("bolt")
	require.True(t, ok)
	_, err := a.Connect(context.Background(), "gen", store.ConnectionConfig{Driver: "bolt"})
	assert.Error(t, err)
}
