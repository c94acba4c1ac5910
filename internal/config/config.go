package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the agent configuration
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Sources SourcesConfig `yaml:"sources"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the available models and which one is active
type LLMConfig struct {
	Current   string                 `yaml:"current"`
	Available map[string]ModelConfig `yaml:"available"`
}

// ModelConfig identifies one provider/model pair
type ModelConfig struct {
	Provider string `yaml:"provider"` // "claude", "gemini"
	Model    string `yaml:"model"`
}

// SourcesConfig configures where the data source providers look for their
// backing resources. Both directories are scanned once at startup.
type SourcesConfig struct {
	DatabasesDir string `yaml:"databases_dir"`
	DocumentsDir string `yaml:"documents_dir"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`  // empty discards logs to keep the REPL clean
}

// CurrentModel returns the ModelConfig for the currently selected model key
func (l LLMConfig) CurrentModel() (ModelConfig, error) {
	mc, ok := l.Available[l.Current]
	if !ok {
		return ModelConfig{}, fmt.Errorf("current model %q not found in available models", l.Current)
	}
	return mc, nil
}

// ModelNames returns the available model keys, sorted
func (l LLMConfig) ModelNames() []string {
	names := make([]string, 0, len(l.Available))
	for name := range l.Available {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Current: "claude-sonnet",
			Available: map[string]ModelConfig{
				"claude-sonnet": {Provider: "claude", Model: "claude-sonnet-4-20250514"},
				"gemini-flash":  {Provider: "gemini", Model: "gemini-1.5-flash"},
			},
		},
		Sources: SourcesConfig{
			DatabasesDir: "data/databases",
			DocumentsDir: "data/documents",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file, falling back to
// defaults when the file does not exist. An empty path uses ./config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.LLM.Current == "" || len(cfg.LLM.Available) == 0 {
		def := defaultConfig()
		if len(cfg.LLM.Available) == 0 {
			cfg.LLM.Available = def.LLM.Available
		}
		if cfg.LLM.Current == "" {
			cfg.LLM.Current = def.LLM.Current
		}
	}
	if cfg.Sources.DatabasesDir == "" {
		cfg.Sources.DatabasesDir = "data/databases"
	}
	if cfg.Sources.DocumentsDir == "" {
		cfg.Sources.DocumentsDir = "data/documents"
	}

	return cfg, nil
}
