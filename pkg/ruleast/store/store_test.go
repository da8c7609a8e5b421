package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) store.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		data := []byte(`{"rule_id": "rule_1"}`)
		require.NoError(t, s.Save(ctx, "rule_1", data))

		loaded, err := s.Load(ctx, "rule_1")
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run(name+"/Save_EmptyID", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		assert.ErrorIs(t, s.Save(ctx, "", []byte("x")), store.ErrEmptyID)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		_, err := s.Load(ctx, "rule_missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, "rule_1", []byte("first")))
		before, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, before, 1)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, s.Save(ctx, "rule_1", []byte("second")))

		loaded, err := s.Load(ctx, "rule_1")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), loaded)

		after, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.True(t, before[0].CreatedAt.Equal(after[0].CreatedAt), "overwrite keeps creation time")
		assert.Equal(t, int64(len("second")), after[0].Size)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		infos, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, infos)
		assert.Empty(t, infos)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, "rule_c", []byte("a")))
		time.Sleep(10 * time.Millisecond) // Ensure different timestamps
		require.NoError(t, s.Save(ctx, "rule_a", []byte("bb")))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, s.Save(ctx, "rule_b", []byte("ccc")))

		infos, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 3)

		// Creation order, not ID order
		assert.Equal(t, "rule_c", infos[0].ID)
		assert.Equal(t, "rule_a", infos[1].ID)
		assert.Equal(t, "rule_b", infos[2].ID)

		assert.Equal(t, int64(1), infos[0].Size)
		assert.Equal(t, int64(2), infos[1].Size)
		assert.Equal(t, int64(3), infos[2].Size)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save(ctx, "rule_1", []byte("data")))
		require.NoError(t, s.Delete(ctx, "rule_1"))

		_, err := s.Load(ctx, "rule_1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		infos, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/Delete_Nonexistent", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		assert.NoError(t, s.Delete(ctx, "rule_missing"))
	})

	t.Run(name+"/DataCopy", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		original := []byte("original data")
		require.NoError(t, s.Save(ctx, "rule_1", original))

		// Modify original slice after save
		original[0] = 'X'

		loaded, err := s.Load(ctx, "rule_1")
		require.NoError(t, err)
		assert.Equal(t, []byte("original data"), loaded)
	})

	t.Run(name+"/Close_ThenError", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		err := s.Save(ctx, "rule_1", []byte("data"))
		assert.ErrorIs(t, err, store.ErrStoreClosed)

		_, err = s.Load(ctx, "rule_1")
		assert.ErrorIs(t, err, store.ErrStoreClosed)

		_, err = s.List(ctx)
		assert.ErrorIs(t, err, store.ErrStoreClosed)

		assert.NoError(t, s.Close(), "close is idempotent")
	})
}

// TestMemoryStore runs contract tests against MemoryStore.
func TestMemoryStore(t *testing.T) {
	factory := func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	}
	storeContractTest(t, "MemoryStore", factory)
}

// TestSQLiteStore runs contract tests against SQLiteStore.
func TestSQLiteStore(t *testing.T) {
	factory := func(t *testing.T) store.Store {
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "rules.db"))
		require.NoError(t, err)
		return s
	}
	storeContractTest(t, "SQLiteStore", factory)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "rule_1", []byte("a")))
	require.NoError(t, s.Save(ctx, "rule_2", []byte("b")))
	require.NoError(t, s.Save(ctx, "rule_1", []byte("cc")))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	data, err := s.Load(ctx, "rule_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cc"), data)
}
