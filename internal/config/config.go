// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

type Config struct {
	Port              string
	Environment       string
	InngestEventKey   string
	InngestSigningKey string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	PerplexityAPIKey  string
	GeminiAPIKey      string
	DatabaseURL       string
	Database          DatabaseConfig
	Providers         ProvidersConfig
	Pipeline          PipelineConfig
}

// DatabaseConfig mirrors the standard postgres connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// ProvidersConfig holds the static enable/disable toggles for each backend.
// A provider must be both enabled and credentialed to receive tasks.
type ProvidersConfig struct {
	OpenAIEnabled     bool
	AnthropicEnabled  bool
	PerplexityEnabled bool
	GeminiEnabled     bool
	MockEnabled       bool
}

// PipelineConfig carries the tunable knobs of the analysis pipeline. The
// defaults match the production values but are deliberately configuration,
// not constants.
type PipelineConfig struct {
	BatchSize       int    // prompts processed concurrently per batch
	MaxPrompts      int    // cap on generated prompts per run
	MaxCompetitors  int    // cap on AI-identified competitors
	ExtractionModel string // structured-extraction model (OpenAI)
}

func Load() *Config {
	config := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		InngestEventKey:   os.Getenv("INNGEST_EVENT_KEY"),
		InngestSigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "brandlens"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Providers = ProvidersConfig{
		OpenAIEnabled:     getEnvBool("PROVIDER_OPENAI_ENABLED", true),
		AnthropicEnabled:  getEnvBool("PROVIDER_ANTHROPIC_ENABLED", true),
		PerplexityEnabled: getEnvBool("PROVIDER_PERPLEXITY_ENABLED", true),
		GeminiEnabled:     getEnvBool("PROVIDER_GEMINI_ENABLED", true),
		MockEnabled:       getEnvBool("PROVIDER_MOCK_ENABLED", false),
	}

	config.Pipeline = PipelineConfig{
		BatchSize:       getEnvInt("PIPELINE_BATCH_SIZE", 3),
		MaxPrompts:      getEnvInt("PIPELINE_MAX_PROMPTS", 4),
		MaxCompetitors:  getEnvInt("PIPELINE_MAX_COMPETITORS", 9),
		ExtractionModel: getEnv("PIPELINE_EXTRACTION_MODEL", "gpt-4.1-mini"),
	}

	return config
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL has no database name")
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:], // remove leading slash
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
