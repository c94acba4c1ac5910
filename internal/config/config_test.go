package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg == nil {
		t.Fatal("defaultConfig() returned nil")
	}

	if cfg.LLM.Current != "claude-sonnet" {
		t.Errorf("default LLM current = %s, want claude-sonnet", cfg.LLM.Current)
	}

	mc, err := cfg.LLM.CurrentModel()
	if err != nil {
		t.Fatalf("CurrentModel() error: %v", err)
	}
	if mc.Provider != "claude" {
		t.Errorf("default model provider = %s, want claude", mc.Provider)
	}

	if cfg.Sources.DatabasesDir != "data/databases" {
		t.Errorf("default databases dir = %s, want data/databases", cfg.Sources.DatabasesDir)
	}
	if cfg.Sources.DocumentsDir != "data/documents" {
		t.Errorf("default documents dir = %s, want data/documents", cfg.Sources.DocumentsDir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("default logging level = %s, want info", cfg.Logging.Level)
	}
}

func TestCurrentModel(t *testing.T) {
	llm := LLMConfig{
		Current: "gf",
		Available: map[string]ModelConfig{
			"gf":  {Provider: "gemini", Model: "gemini-1.5-flash"},
			"cs4": {Provider: "claude", Model: "claude-sonnet-4-20250514"},
		},
	}

	mc, err := llm.CurrentModel()
	if err != nil {
		t.Fatalf("CurrentModel() error: %v", err)
	}
	if mc.Provider != "gemini" || mc.Model != "gemini-1.5-flash" {
		t.Errorf("CurrentModel() = %+v, want gemini/gemini-1.5-flash", mc)
	}
}

func TestCurrentModel_NotFound(t *testing.T) {
	llm := LLMConfig{
		Current:   "missing",
		Available: map[string]ModelConfig{},
	}

	_, err := llm.CurrentModel()
	if err == nil {
		t.Error("CurrentModel() should return error for missing key")
	}
}

func TestModelNames(t *testing.T) {
	llm := LLMConfig{
		Available: map[string]ModelConfig{
			"zulu":  {Provider: "claude", Model: "c"},
			"alpha": {Provider: "gemini", Model: "g"},
			"mike":  {Provider: "claude", Model: "c2"},
		},
	}

	names := llm.ModelNames()
	if len(names) != 3 {
		t.Fatalf("ModelNames() returned %d names, want 3", len(names))
	}
	if names[0] != "alpha" || names[1] != "mike" || names[2] != "zulu" {
		t.Errorf("ModelNames() = %v, want [alpha mike zulu]", names)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() with non-existent file returned error: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	mc, err := cfg.LLM.CurrentModel()
	if err != nil {
		t.Fatalf("CurrentModel() error: %v", err)
	}
	if mc.Provider != "claude" {
		t.Errorf("LLM provider = %s, want claude", mc.Provider)
	}
}

func TestLoad_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configYAML := `llm:
  current: gemini-flash
  available:
    gemini-flash:
      provider: gemini
      model: gemini-1.5-flash

sources:
  databases_dir: /srv/data/db
  documents_dir: /srv/data/docs

logging:
  level: debug
`

	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.LLM.Current != "gemini-flash" {
		t.Errorf("LLM current = %s, want gemini-flash", cfg.LLM.Current)
	}
	mc, err := cfg.LLM.CurrentModel()
	if err != nil {
		t.Fatalf("CurrentModel() error: %v", err)
	}
	if mc.Provider != "gemini" {
		t.Errorf("provider = %s, want gemini", mc.Provider)
	}
	if cfg.Sources.DatabasesDir != "/srv/data/db" {
		t.Errorf("databases dir = %s, want /srv/data/db", cfg.Sources.DatabasesDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configYAML := `logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.LLM.Current == "" {
		t.Error("partial config should keep default model selection")
	}
	if cfg.Sources.DocumentsDir != "data/documents" {
		t.Errorf("documents dir = %s, want default data/documents", cfg.Sources.DocumentsDir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("llm: [not: valid"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid YAML")
	}
}
