package glideshift

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClusterConstructor(t *testing.T) {
	code := `import Redis from 'ioredis';
const cluster = new Redis.Cluster([{ host: '10.0.0.1', port: 6379 }, { host: '10.0.0.2', port: 6379 }]);
await cluster.set('k', 'v');
`
	s := NewClusterStrategy(nil)
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, "import { GlideClusterClient } from '@valkey/valkey-glide';")
	require.Contains(t, res.Code,
		"await GlideClusterClient.createClient({ addresses: [{ host: '10.0.0.1', port: 6379 }, { host: '10.0.0.2', port: 6379 }] })")
	require.NotContains(t, res.Code, "new Redis.Cluster")
	require.Contains(t, strings.Join(res.Warnings, "\n"), "failover")
	require.NotEmpty(t, res.Notes)
}

func TestClusterConstructorWithOptions(t *testing.T) {
	code := `const Redis = require('ioredis');
const cluster = new Redis.Cluster([{ host: 'a', port: 1 }], { scaleReads: 'slave' });
`
	s := NewClusterStrategy(nil)
	res := s.Apply(&Source{Code: code, From: ClientIORedis})
	require.Contains(t, res.Code, "const { GlideClusterClient } = require('@valkey/valkey-glide');")
	require.Contains(t, res.Code, "await GlideClusterClient.createClient({ addresses: [{ host: 'a', port: 1 }] })")
	require.NotContains(t, res.Code, "scaleReads")
}

func TestClusterNodeRedisCreateClusterWarning(t *testing.T) {
	code := `const cluster = createCluster({ rootNodes: [{ url: 'redis://a:1' }] });`
	s := NewClusterStrategy(nil)
	res := s.Apply(&Source{Code: code, From: ClientNodeRedis})
	// reported, not rewritten
	require.Contains(t, res.Code, "createCluster(")
	require.Contains(t, strings.Join(res.Warnings, "\n"), "createCluster")
}

func TestClusterSelectedByMigrator(t *testing.T) {
	code := `import Redis from 'ioredis';
const cluster = new Redis.Cluster([{ host: 'a', port: 1 }]);
`
	m, err := New(nil)
	require.Nil(t, err)
	res, err := m.Migrate(&Source{Code: code, From: ClientIORedis})
	require.Nil(t, err)
	require.Equal(t, ComplexityAdvanced, res.Complexity)
	require.True(t, hasTag(res.DetectedPatterns, PatternCluster))
	require.Contains(t, res.TransformedCode, "GlideClusterClient")
}
