package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Implementations(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) Cache
	}{
		{
			name: "memory",
			build: func(t *testing.T) Cache {
				return NewMemoryCache()
			},
		},
		{
			name: "sqlite",
			build: func(t *testing.T) Cache {
				c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
				require.NoError(t, err)
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.build(t)
			t.Cleanup(func() { _ = c.Close() })

			_, ok, err := c.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set("userActivities", `[{"id":"a"}]`))
			v, ok, err := c.Get("userActivities")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"a"}]`, v)

			require.NoError(t, c.Set("userActivities", `[]`))
			v, _, err = c.Get("userActivities")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)

			require.NoError(t, c.Remove("userActivities"))
			_, ok, err = c.Get("userActivities")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, c.Remove("never-set"))
		})
	}
}

func TestSQLiteCache_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLiteCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("anonymousId", "anon-1"))
	require.NoError(t, c.Close())

	reopened, err := NewSQLiteCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("anonymousId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "anon-1", v)
}
