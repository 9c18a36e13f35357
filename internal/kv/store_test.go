package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(path)
	require.NoError(t, s.Init())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			return newSQLite(t, filepath.Join(t.TempDir(), "nested", "state.db"))
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("a", `["x"]`))
			v, ok, err := s.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `["x"]`, v)

			require.NoError(t, s.Set("a", ""))
			v, ok, err = s.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "", v)

			require.NoError(t, s.Remove("a"))
			_, ok, err = s.Get("a")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Remove("never-set"))
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init())
	require.NoError(t, first.Set("coach/chat_history", `[{"role":"user","content":"hi"}]`))
	require.NoError(t, first.Close())

	second := newSQLite(t, path)
	v, ok, err := second.Get("coach/chat_history")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, v)
}
