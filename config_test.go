package glideshift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration.yaml")
	require.Nil(t, GenerateSample(path))

	cfg, err := NewConfig(path)
	require.Nil(t, err)
	require.Equal(t, DefaultConfig.AdvancedKeywords, cfg.AdvancedKeywords)
	require.Equal(t, DefaultConfig.BlockingAliases, cfg.BlockingAliases)
	require.Equal(t, "localhost", cfg.DefaultHost)
	require.Equal(t, 6379, cfg.DefaultPort)
}

func TestNewConfigBackfillsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "default-host: redis.prod\nadvanced-keywords:\n  - danger\n"
	require.Nil(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := NewConfig(path)
	require.Nil(t, err)
	require.Equal(t, "redis.prod", cfg.DefaultHost)
	require.Equal(t, []string{"danger"}, cfg.AdvancedKeywords)
	// untouched tables fall back to the defaults
	require.Equal(t, 6379, cfg.DefaultPort)
	require.Equal(t, DefaultConfig.IntermediateKeywords, cfg.IntermediateKeywords)
	require.Equal(t, DefaultConfig.HashAliases, cfg.HashAliases)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NotNil(t, err)
}
