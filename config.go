package glideshift

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the keyword and alias tables driving classification and
// method renames. It is loaded once per process and passed by reference into
// the pure classification/rewrite functions; the engine never mutates it.
type Config struct {
	// AdvancedKeywords force complexity=advanced on a substring hit
	AdvancedKeywords []string `yaml:"advanced-keywords"`
	// IntermediateKeywords force complexity=intermediate on a substring hit
	IntermediateKeywords []string `yaml:"intermediate-keywords"`
	// BlockingAliases maps source blocking methods to native target methods
	BlockingAliases map[string]string `yaml:"blocking-aliases"`
	// HashAliases maps node-redis camelCase hash accessors to target casing
	HashAliases map[string]string `yaml:"hash-aliases"`
	// DefaultHost/DefaultPort are used when a constructor carries no address
	DefaultHost string `yaml:"default-host"`
	DefaultPort int    `yaml:"default-port"`
}

// NewConfig reads config from file
func NewConfig(filePath string) (*Config, error) {
	bin, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(bin, &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// GenerateSample creates a sample yaml file with default values
func GenerateSample(filePath string) error {
	bin, err := yaml.Marshal(DefaultConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, bin, 0644)
}

// fillDefaults backfills any table a partial config file left empty.
func (c *Config) fillDefaults() {
	if len(c.AdvancedKeywords) == 0 {
		c.AdvancedKeywords = DefaultConfig.AdvancedKeywords
	}
	if len(c.IntermediateKeywords) == 0 {
		c.IntermediateKeywords = DefaultConfig.IntermediateKeywords
	}
	if len(c.BlockingAliases) == 0 {
		c.BlockingAliases = DefaultConfig.BlockingAliases
	}
	if len(c.HashAliases) == 0 {
		c.HashAliases = DefaultConfig.HashAliases
	}
	if c.DefaultHost == "" {
		c.DefaultHost = DefaultConfig.DefaultHost
	}
	if c.DefaultPort == 0 {
		c.DefaultPort = DefaultConfig.DefaultPort
	}
}
