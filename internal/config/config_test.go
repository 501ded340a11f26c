package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drona.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsApplied(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config path")
	}

	m, err := Load(writeTempConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}

	if got := m.GetInt("core.timeout_seconds", 0); got != DefaultTimeoutSeconds {
		t.Errorf("core.timeout_seconds = %d, want %d", got, DefaultTimeoutSeconds)
	}
	if got := m.GetString("providers.openai.base_url", ""); got != "https://api.openai.com/v1" {
		t.Errorf("openai base_url = %q", got)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
core:
  timeout_seconds: 60
agents:
  chat:
    model: local-model
    temperature: 0.2
`)

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := m.GetInt("core.timeout_seconds", 0); got != 60 {
		t.Errorf("timeout = %d, want 60", got)
	}

	agent := m.AgentConfig("chat")
	if agent.Model != "local-model" {
		t.Errorf("chat model = %q, want local-model", agent.Model)
	}
	if agent.Temperature != 0.2 {
		t.Errorf("chat temperature = %v, want 0.2", agent.Temperature)
	}
	// Defaults still visible where the file is silent.
	if agent.Provider != "openai" {
		t.Errorf("chat provider = %q, want openai", agent.Provider)
	}
}

func TestAPIKeyStrippedFromFile(t *testing.T) {
	path := writeTempConfig(t, `
providers:
  openai:
    base_url: https://example.test/v1
    api_key: leaked-secret
`)

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DRONA_OPENAI_API_KEY", "")

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	p := m.ProviderConfig("openai")
	if p.APIKey != "" {
		t.Errorf("api_key from file must be ignored, got %q", p.APIKey)
	}
	if p.BaseURL != "https://example.test/v1" {
		t.Errorf("base_url = %q", p.BaseURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
agents:
  chat:
    model: file-model
`)

	t.Setenv("DRONA_MODEL", "env-model")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := m.AgentConfig("chat").Model; got != "env-model" {
		t.Errorf("chat model = %q, want env-model", got)
	}
	if got := m.ProviderConfig("openai").APIKey; got != "sk-test" {
		t.Errorf("api key = %q, want sk-test", got)
	}
}

func TestStreamingDefaults(t *testing.T) {
	on := true
	off := false

	tests := []struct {
		name string
		cfg  AgentConfig
		want bool
	}{
		{"plain model defaults to streaming", AgentConfig{}, true},
		{"reasoning model defaults to sync", AgentConfig{ReasoningModel: true}, false},
		{"explicit stream wins for reasoning", AgentConfig{ReasoningModel: true, Stream: &on}, true},
		{"explicit no-stream wins", AgentConfig{Stream: &off}, false},
	}

	for _, tt := range tests {
		if got := tt.cfg.Streaming(); got != tt.want {
			t.Errorf("%s: Streaming() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestUnknownAgentFallsBackToCoreProvider(t *testing.T) {
	m, err := Load(writeTempConfig(t, "core: {}\n"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := m.AgentConfig("nope")
	if cfg.Model != "" {
		t.Errorf("expected no model, got %+v", cfg)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q, want the core.provider default", cfg.Provider)
	}

	m, err = Load(writeTempConfig(t, `
core:
  provider: ollama
`))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.AgentConfig("nope").Provider; got != "ollama" {
		t.Errorf("provider = %q, want core.provider override", got)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := writeTempConfig(t, "core: {}\n")
	if err := WriteDefault(path); err == nil {
		t.Error("expected error writing over an existing file")
	}

	fresh := filepath.Join(t.TempDir(), "new", "config.yaml")
	if err := WriteDefault(fresh); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("config not written: %v", err)
	}
}
