package assistant

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for an Assistant.
//
// It includes settings for:
//   - Storage backend (conversation history, memories, profiles, lessons)
//   - LLM provider (reply generation)
//   - Web search (live information lookup)
//   - Persona (name and mood defaults)
//
// Example:
//
//	config := &assistant.Config{
//	    Storage: assistant.StorageConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./fennec.db",
//	        },
//	    },
//	    LLM: assistant.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4o-mini",
//	    },
//	}
type Config struct {
	// Storage contains storage backend configuration.
	Storage StorageConfig `json:"storage"`

	// LLM contains LLM provider configuration.
	LLM LLMConfig `json:"llm"`

	// Search contains web search configuration (optional).
	Search SearchConfig `json:"search"`

	// Persona contains persona configuration (optional).
	Persona PersonaConfig `json:"persona"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, groq, anthropic, deepseek, ollama
type LLMConfig struct {
	// Provider is the LLM provider name (openai, groq, anthropic, deepseek, ollama).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-4o-mini", "deepseek-chat").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// StorageConfig contains configuration for the storage backend.
//
// Supported providers: sqlite, mysql, postgres
type StorageConfig struct {
	// Provider is the storage provider name (sqlite, mysql, postgres).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For MySQL: host, port, user, password, db_name
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	Config map[string]interface{} `json:"config"`
}

// SearchConfig contains configuration for web search.
type SearchConfig struct {
	// Enabled indicates whether live web search is available.
	Enabled bool `json:"enabled"`

	// Keywords override the default search trigger keywords (optional).
	Keywords []string `json:"keywords,omitempty"`

	// BaseURL overrides the search endpoint (optional).
	BaseURL string `json:"base_url,omitempty"`
}

// PersonaConfig contains configuration for the assistant's persona.
type PersonaConfig struct {
	// Name is what the assistant calls itself. Default: "Fennec".
	Name string `json:"name"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, mysql, postgres)
//   - SQLITE_PATH
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - SEARCH_ENABLED, SEARCH_KEYWORDS (comma separated)
//   - ASSISTANT_NAME
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	storageConfig := make(map[string]interface{})
	switch provider {
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("MYSQL_USER", "root"),
			"password": os.Getenv("MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("MYSQL_DATABASE", "fennec"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "fennec"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	default:
		storageConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", "./fennec.db"),
		}
	}

	llmProvider := getEnvOrDefault("LLM_PROVIDER", "openai")
	var llmBaseURL string
	var defaultModel string

	switch llmProvider {
	case "deepseek":
		llmBaseURL = getEnvOrDefault("LLM_BASE_URL", "https://api.deepseek.com")
		defaultModel = "deepseek-chat"
	case "groq":
		llmBaseURL = getEnvOrDefault("LLM_BASE_URL", "https://api.groq.com/openai/v1")
		defaultModel = "llama-3.3-70b-versatile"
	case "ollama":
		llmBaseURL = getEnvOrDefault("LLM_BASE_URL", "http://localhost:11434")
		defaultModel = "llama3.2"
	case "anthropic":
		llmBaseURL = getEnvOrDefault("LLM_BASE_URL", "https://api.anthropic.com")
		defaultModel = "claude-3-5-haiku-latest"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		defaultModel = "gpt-4o-mini"
	}

	var keywords []string
	if raw := os.Getenv("SEARCH_KEYWORDS"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}

	return &Config{
		Storage: StorageConfig{
			Provider: provider,
			Config:   storageConfig,
		},
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  llmBaseURL,
		},
		Search: SearchConfig{
			Enabled:  getEnvOrDefault("SEARCH_ENABLED", "true") == "true",
			Keywords: keywords,
		},
		Persona: PersonaConfig{
			Name: getEnvOrDefault("ASSISTANT_NAME", "Fennec"),
		},
	}, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, NewAssistantError("LoadConfigFromEnvFile", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAssistantError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewAssistantError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are set:
//   - Storage provider must be specified
//   - LLM provider must be specified
//   - Remote LLM providers require an API key
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Storage.Provider == "" {
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	if c.LLM.Provider == "" {
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return NewAssistantError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
