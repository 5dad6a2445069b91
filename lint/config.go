package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	tt "github.com/gnolang/eql/internal/types"
)

// DefaultConfigPath is the configuration file looked up when none is given.
const DefaultConfigPath = ".eql.yaml"

// Config represents the overall configuration with a name and a set of rules.
type Config struct {
	Name    string                   `yaml:"name"`
	Rules   map[string]tt.ConfigRule `yaml:"rules"`
	Parser  ParserConfig             `yaml:"parser"`
	Format  FormatConfig             `yaml:"format"`
	Clauses ClauseConfig             `yaml:"clauses"`
}

type ParserConfig struct {
	AllowParameters bool `yaml:"allow_parameters"`
}

type FormatConfig struct {
	TabWidth         int  `yaml:"tab_width"`
	UnwrapParameters bool `yaml:"unwrap_parameters"`
}

// ClauseConfig selects the grammar queries are checked against. An empty
// registry uses the built-in Elasticsearch grammar.
type ClauseConfig struct {
	Registry string `yaml:"registry"`
	Root     string `yaml:"root"`
}

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() Config {
	return Config{
		Name:   "eql",
		Rules:  map[string]tt.ConfigRule{},
		Format: FormatConfig{TabWidth: 2},
	}
}

// LoadConfig reads a configuration file and fills unset fields from
// DefaultConfig. A missing file yields the defaults. A relative registry
// path is resolved against the directory of the file.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	return parseConfig(data, filepath.Dir(path))
}

func parseConfig(data []byte, dir string) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing configuration: %w", err)
	}
	if err := mergo.Merge(&config, DefaultConfig()); err != nil {
		return DefaultConfig(), fmt.Errorf("error applying configuration defaults: %w", err)
	}
	if reg := config.Clauses.Registry; reg != "" && !filepath.IsAbs(reg) {
		config.Clauses.Registry = filepath.Join(dir, reg)
	}
	return config, nil
}

// WriteConfig writes config as YAML to path.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}
