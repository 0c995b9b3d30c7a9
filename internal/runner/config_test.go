package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glideshift/glideshift"
)

func TestBootstrapDefaultConfigCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".config", "glideshift", "migration_test.yaml")
	bootstrapDefaultConfig(path)

	bin, err := os.ReadFile(path)
	require.Nil(t, err)
	require.Equal(t, glideshift.DefaultConfigBin, bin)
}

func TestBootstrapDefaultConfigLoadsExisting(t *testing.T) {
	defer func(cfg glideshift.Config) { glideshift.DefaultConfig = cfg }(glideshift.DefaultConfig)

	path := filepath.Join(t.TempDir(), "migration_test.yaml")
	require.Nil(t, os.WriteFile(path, []byte("default-host: redis.prod\n"), 0600))
	bootstrapDefaultConfig(path)
	require.Equal(t, "redis.prod", glideshift.DefaultConfig.DefaultHost)
}
