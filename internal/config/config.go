// Package config loads and merges drona configuration.
//
// Precedence, lowest to highest: built-in defaults, the user config at
// ~/.drona/config.yaml, a project-local drona.yaml, then environment
// variables. API keys are only ever taken from the environment; an api_key
// found in a YAML file is dropped with a warning.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultTimeoutSeconds is the per-request HTTP timeout.
const DefaultTimeoutSeconds = 30

// DefaultRetries is the retry budget for rate-limited or failed LLM calls.
const DefaultRetries = 3

// AgentConfig selects the model and generation parameters for one agent.
type AgentConfig struct {
	Provider       string
	Model          string
	Temperature    float64
	Stream         *bool
	ReasoningModel bool
	SystemPrompt   string
}

// Streaming reports whether this agent uses the streaming transport.
// Streaming defaults to on, except for reasoning models, which default to
// the non-streaming path unless stream is set explicitly.
func (a AgentConfig) Streaming() bool {
	if a.Stream != nil {
		return *a.Stream
	}
	return !a.ReasoningModel
}

// ProviderConfig identifies one chat-completions endpoint.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
}

// Manager resolves configuration values by dotted path.
type Manager struct {
	v *viper.Viper
}

// Load builds a Manager. When path is non-empty only that file is read;
// otherwise the user config and a project-local drona.yaml are merged in
// order. Missing files are not an error.
func Load(path string) (*Manager, error) {
	// Secrets may live in a project .env; absence is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		if err := mergeFile(v, path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			_ = mergeFile(v, filepath.Join(home, ".drona", "config.yaml"))
		}
		_ = mergeFile(v, "drona.yaml")
	}

	applyEnvOverrides(v)

	return &Manager{v: v}, nil
}

// setDefaults installs the built-in configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("core.provider", "openai")
	v.SetDefault("core.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("core.llm_retries", DefaultRetries)
	v.SetDefault("core.verify_ssl", true)
	v.SetDefault("core.debug", false)

	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.ollama.base_url", "http://localhost:11434/v1")

	v.SetDefault("agents.chat.provider", "openai")
	v.SetDefault("agents.chat.model", "gpt-4o")
	v.SetDefault("agents.chat.temperature", 0.7)

	v.SetDefault("agents.commit_generator.provider", "openai")
	v.SetDefault("agents.commit_generator.model", "gpt-4o-mini")
	v.SetDefault("agents.commit_generator.temperature", 0.7)

	v.SetDefault("agents.qahelper.provider", "openai")
	v.SetDefault("agents.qahelper.model", "gpt-4o-mini")
	v.SetDefault("agents.qahelper.temperature", 0.7)

	v.SetDefault("agents.docstring_writer.provider", "openai")
	v.SetDefault("agents.docstring_writer.model", "gpt-4o-mini")
	v.SetDefault("agents.docstring_writer.temperature", 0.3)

	v.SetDefault("agents.code_editor.provider", "openai")
	v.SetDefault("agents.code_editor.model", "gpt-4o")
	v.SetDefault("agents.code_editor.temperature", 0.3)
}

// mergeFile merges one YAML file into v, dropping any api_key entries first.
func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}

	if stripAPIKeys(raw) {
		fmt.Fprintf(os.Stderr,
			"Warning: api_key in %s is ignored for security. Use environment variables.\n", path)
	}

	return v.MergeConfigMap(raw)
}

// stripAPIKeys removes api_key from every provider entry, reporting whether
// any were present.
func stripAPIKeys(raw map[string]any) bool {
	providers, ok := raw["providers"].(map[string]any)
	if !ok {
		return false
	}

	stripped := false
	for _, p := range providers {
		entry, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if _, has := entry["api_key"]; has {
			delete(entry, "api_key")
			stripped = true
		}
	}
	return stripped
}

// applyEnvOverrides applies environment variables last so secrets and
// one-off overrides win over file contents.
func applyEnvOverrides(v *viper.Viper) {
	if key := firstEnv("DRONA_OPENAI_API_KEY", "OPENAI_API_KEY"); key != "" {
		v.Set("providers.openai.api_key", key)
	}
	if url := os.Getenv("DRONA_BASE_URL"); url != "" {
		v.Set("providers.openai.base_url", url)
	}
	if model := os.Getenv("DRONA_MODEL"); model != "" {
		v.Set("agents.chat.model", model)
	}
	if os.Getenv("DRONA_DEBUG") != "" {
		v.Set("core.debug", true)
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// Get resolves a dotted key, returning def when the key is unset.
func (m *Manager) Get(key string, def any) any {
	if !m.v.IsSet(key) {
		return def
	}
	return m.v.Get(key)
}

// GetString resolves a dotted key as a string.
func (m *Manager) GetString(key, def string) string {
	if !m.v.IsSet(key) {
		return def
	}
	return m.v.GetString(key)
}

// GetInt resolves a dotted key as an int.
func (m *Manager) GetInt(key string, def int) int {
	if !m.v.IsSet(key) {
		return def
	}
	return m.v.GetInt(key)
}

// GetBool resolves a dotted key as a bool.
func (m *Manager) GetBool(key string, def bool) bool {
	if !m.v.IsSet(key) {
		return def
	}
	return m.v.GetBool(key)
}

// AgentConfig returns the configuration for the named agent. Each field is
// resolved by leaf so file values and built-in defaults mix correctly.
func (m *Manager) AgentConfig(name string) AgentConfig {
	prefix := "agents." + name + "."

	cfg := AgentConfig{
		Provider:       m.v.GetString(prefix + "provider"),
		Model:          m.v.GetString(prefix + "model"),
		Temperature:    m.v.GetFloat64(prefix + "temperature"),
		ReasoningModel: m.v.GetBool(prefix + "reasoning_model"),
		SystemPrompt:   m.v.GetString(prefix + "system_prompt"),
	}
	if cfg.Provider == "" {
		cfg.Provider = m.GetString("core.provider", "openai")
	}
	if m.v.IsSet(prefix + "stream") {
		stream := m.v.GetBool(prefix + "stream")
		cfg.Stream = &stream
	}

	// System prompts may also live under prompts.<agent>.
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = m.v.GetString("prompts." + name)
	}
	return cfg
}

// ProviderConfig returns the configuration for the named provider.
func (m *Manager) ProviderConfig(name string) ProviderConfig {
	prefix := "providers." + name + "."
	return ProviderConfig{
		BaseURL: m.v.GetString(prefix + "base_url"),
		APIKey:  m.v.GetString(prefix + "api_key"),
	}
}

// Set overrides a value for the lifetime of this Manager; never persisted.
func (m *Manager) Set(key string, value any) {
	m.v.Set(key, value)
}

// AllSettings returns the merged configuration tree for display.
func (m *Manager) AllSettings() map[string]any {
	return m.v.AllSettings()
}

// WriteDefault writes a starter config file at path. Fails if the file
// already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	v := viper.New()
	setDefaults(v)

	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}
