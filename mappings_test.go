package glideshift

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalRenamesSorted(t *testing.T) {
	for _, from := range []Client{ClientIORedis, ClientNodeRedis} {
		mappings := CanonicalRenames(from, nil)
		require.NotEmpty(t, mappings)
		require.True(t, sort.SliceIsSorted(mappings, func(i, j int) bool {
			return mappings[i].Source < mappings[j].Source
		}), "renames for %v must be sorted", from)
	}
}

func TestMappingLookup(t *testing.T) {
	p := NewMappingProvider(nil)

	m, ok := p.Lookup("setex", ClientIORedis)
	require.True(t, ok)
	require.Equal(t, "set", m.Target)
	require.NotEmpty(t, m.Note)

	m, ok = p.Lookup("brpoplpush", ClientIORedis)
	require.True(t, ok)
	require.Equal(t, "blmove", m.Target)

	m, ok = p.Lookup("hGetAll", ClientNodeRedis)
	require.True(t, ok)
	require.Equal(t, "hgetall", m.Target)

	m, ok = p.Lookup("quit", ClientNodeRedis)
	require.True(t, ok)
	require.Equal(t, "close", m.Target)

	_, ok = p.Lookup("georadius", ClientIORedis)
	require.False(t, ok)

	// node-redis casing does not leak into the ioredis table
	_, ok = p.Lookup("hGetAll", ClientIORedis)
	require.False(t, ok)
}
