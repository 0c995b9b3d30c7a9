package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/projectdiscovery/gologger"
	fileutil "github.com/projectdiscovery/utils/file"
	"gopkg.in/yaml.v3"

	"github.com/glideshift/glideshift"
)

func getUserHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return homeDir
}

func init() {
	bootstrapDefaultConfig(filepath.Join(getUserHomeDir(), fmt.Sprintf(".config/glideshift/migration_%v.yaml", version)))
}

// bootstrapDefaultConfig creates the default migration config if it does not
// exist; an existing file overrides the built-in defaults.
func bootstrapDefaultConfig(path string) {
	if fileutil.FileExists(path) {
		// if it exists use that data as default
		if bin, err := os.ReadFile(path); err == nil {
			var cfg glideshift.Config
			if errx := yaml.Unmarshal(bin, &cfg); errx == nil {
				glideshift.DefaultConfig = cfg
				return
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		gologger.Error().Msgf("failed to create config directory for %v got: %v", path, err)
		return
	}
	if err := os.WriteFile(path, glideshift.DefaultConfigBin, 0600); err != nil {
		gologger.Error().Msgf("failed to save default config to %v got: %v", path, err)
	}
}
