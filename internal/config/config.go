package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level bankfeed.yaml configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Import  ImportConfig  `yaml:"import"`
	Git     GitConfig     `yaml:"git"`
}

// ProjectConfig identifies the data repository.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// ImportConfig controls merge behavior.
type ImportConfig struct {
	// OnAllDuplicates is what happens when an import contains nothing
	// new: "lenient" returns an empty result, "strict" fails.
	OnAllDuplicates string `yaml:"on_all_duplicates"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a bankfeed.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(name string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name: name,
		},
		Import: ImportConfig{
			OnAllDuplicates: "lenient",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Bankfeed",
			AuthorEmail: "bankfeed@localhost",
		},
	}
}
