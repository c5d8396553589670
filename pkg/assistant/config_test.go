package assistant_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/assistant"
)

func TestConfig_Validate(t *testing.T) {
	valid := &assistant.Config{
		Storage: assistant.StorageConfig{Provider: "sqlite"},
		LLM:     assistant.LLMConfig{Provider: "openai", APIKey: "sk-test"},
	}
	assert.NoError(t, valid.Validate())

	noStorage := &assistant.Config{
		LLM: assistant.LLMConfig{Provider: "openai", APIKey: "sk-test"},
	}
	assert.ErrorIs(t, noStorage.Validate(), assistant.ErrInvalidConfig)

	noLLM := &assistant.Config{
		Storage: assistant.StorageConfig{Provider: "sqlite"},
	}
	assert.ErrorIs(t, noLLM.Validate(), assistant.ErrInvalidConfig)

	noKey := &assistant.Config{
		Storage: assistant.StorageConfig{Provider: "sqlite"},
		LLM:     assistant.LLMConfig{Provider: "anthropic"},
	}
	assert.ErrorIs(t, noKey.Validate(), assistant.ErrInvalidConfig)

	// Ollama runs locally, no key needed.
	ollama := &assistant.Config{
		Storage: assistant.StorageConfig{Provider: "sqlite"},
		LLM:     assistant.LLMConfig{Provider: "ollama"},
	}
	assert.NoError(t, ollama.Validate())
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("SEARCH_ENABLED", "")
	t.Setenv("SEARCH_KEYWORDS", "")

	cfg, err := assistant.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Provider)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.True(t, cfg.Search.Enabled)
	assert.Empty(t, cfg.Search.Keywords)
	assert.Equal(t, "Fennec", cfg.Persona.Name)
}

func TestLoadConfigFromEnv_ProviderSwitches(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("SEARCH_ENABLED", "false")
	t.Setenv("SEARCH_KEYWORDS", "جستجو کن, search , ")

	cfg, err := assistant.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Provider)
	assert.Equal(t, "db.internal", cfg.Storage.Config["host"])
	assert.Equal(t, 5433, cfg.Storage.Config["port"])

	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)

	assert.False(t, cfg.Search.Enabled)
	assert.Equal(t, []string{"جستجو کن", "search"}, cfg.Search.Keywords)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := `{
		"storage": {"provider": "sqlite", "config": {"db_path": "./x.db"}},
		"llm": {"provider": "groq", "api_key": "gsk-test", "model": "llama-3.3-70b-versatile"},
		"search": {"enabled": true},
		"persona": {"name": "Fox"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	cfg, err := assistant.LoadConfigFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "./x.db", cfg.Storage.Config["db_path"])
	assert.Equal(t, "Fox", cfg.Persona.Name)

	_, err = assistant.LoadConfigFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
