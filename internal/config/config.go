// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Guardrail GuardrailConfig
	DocDB     DocDBConfig
	Vault     VaultConfig
	AI        AIConfig
	Swarm     SwarmConfig
	Chat      ChatConfig
	Notify    NotifyConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string

	// AdminAPIKey guards the operator endpoints; empty disables them.
	AdminAPIKey string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration

	// KeyPrefix namespaces every key when the Redis instance is shared.
	KeyPrefix string
}

// GuardrailConfig holds configuration for the rate/cost counter store.
type GuardrailConfig struct {
	// StoreType is "memory" (per process) or "redis" (shared across instances).
	StoreType             string
	SessionCallsPerMinute int
	IPMessagesPerHour     int
	ResponseCacheTTL      time.Duration
	PerformanceRecordTTL  time.Duration
	PerformanceRecordsOn  bool
	CustomerProfileTTL    time.Duration
	MaxMessagesPerSession int
	SessionTTL            time.Duration
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Enabled   bool
	Type      string
	URI       string
	Database  string
	Retention time.Duration
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	SecretsFile   string
	EncryptionKey string
}

// AIConfig holds the single-call AI engine configuration.
type AIConfig struct {
	Enabled     bool
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	CostLimit   float64
	Timeout     time.Duration
	MaxRetries  int
	BaseURL     string
}

// SwarmConfig holds swarm orchestration and A/B routing configuration.
type SwarmConfig struct {
	Enabled       bool
	ABTestEnabled bool
	Percentage    int
	MinSampleSize int
}

// ChatConfig holds chat endpoint configuration.
type ChatConfig struct {
	StoreTimeout time.Duration
}

// NotifyConfig holds escalation webhook configuration.
type NotifyConfig struct {
	TeamsWebhookURL string
	Timeout         time.Duration
	QueueSize       int
	Workers         int
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "release"),

			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second,

			KeyPrefix: getEnv("CACHE_KEY_PREFIX", ""),
		},
		Guardrail: GuardrailConfig{
			StoreType:             getEnv("GUARDRAIL_STORE_TYPE", "memory"),
			SessionCallsPerMinute: getEnvAsInt("RATE_LIMIT_SESSION_PER_MINUTE", 10),
			IPMessagesPerHour:     getEnvAsInt("RATE_LIMIT_IP_PER_HOUR", 60),
			ResponseCacheTTL:      time.Duration(getEnvAsInt("AI_CACHE_TTL_SECONDS", 3600)) * time.Second,
			PerformanceRecordTTL:  time.Duration(getEnvAsInt("PERFORMANCE_RECORD_TTL_SECONDS", 7*24*3600)) * time.Second,
			PerformanceRecordsOn:  getEnvAsBool("PERFORMANCE_RECORDS_ENABLED", true),
			CustomerProfileTTL:    time.Duration(getEnvAsInt("CUSTOMER_PROFILE_TTL_SECONDS", 30*24*3600)) * time.Second,
			MaxMessagesPerSession: getEnvAsInt("MAX_MESSAGES_PER_SESSION", 25),
			SessionTTL:            time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		},
		DocDB: DocDBConfig{
			Enabled:  getEnvAsBool("DOCDB_ENABLED", false),
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "itera_chatbot"),

			Retention: time.Duration(getEnvAsInt("DOCDB_RETENTION_DAYS", 0)) * 24 * time.Hour,
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			SecretsFile:   getEnv("VAULT_SECRETS_FILE", ""),
			EncryptionKey: getEnv("SECRETS_ENCRYPTION_KEY", ""),
		},
		AI: AIConfig{
			Enabled:     getEnvAsBool("AI_ENABLED", true),
			Provider:    getEnv("AI_PROVIDER", "openai"),
			Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 150),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),
			CostLimit:   getEnvAsFloat("AI_COST_LIMIT", 0.10),
			Timeout:     time.Duration(getEnvAsInt("AI_TIMEOUT_SECONDS", 8)) * time.Second,
			MaxRetries:  getEnvAsInt("AI_MAX_RETRIES", 2),
			BaseURL:     getEnv("AI_BASE_URL", ""),
		},
		Swarm: SwarmConfig{
			Enabled:       getEnvAsBool("SWARM_ENABLED", true),
			ABTestEnabled: getEnvAsBool("AB_TEST_ENABLED", true),
			Percentage:    getEnvAsInt("SWARM_PERCENTAGE", 10),
			MinSampleSize: getEnvAsInt("AB_MIN_SAMPLE_SIZE", 10),
		},
		Chat: ChatConfig{
			StoreTimeout: time.Duration(getEnvAsInt("SESSION_STORE_TIMEOUT_SECONDS", 8)) * time.Second,
		},
		Notify: NotifyConfig{
			TeamsWebhookURL: getEnv("TEAMS_WEBHOOK_URL", ""),
			Timeout:         time.Duration(getEnvAsInt("TEAMS_WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
			QueueSize:       getEnvAsInt("NOTIFY_QUEUE_SIZE", 100),
			Workers:         getEnvAsInt("NOTIFY_WORKERS", 2),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{
				"https://www.it-era.it",
				"https://it-era.it",
				"https://it-era.pages.dev",
				"http://localhost:3000",
				"http://localhost:8788",
			}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that would otherwise silently disable guardrails.
func (c *Config) Validate() error {
	if c.Swarm.Percentage < 0 || c.Swarm.Percentage > 100 {
		return fmt.Errorf("SWARM_PERCENTAGE must be between 0 and 100, got %d", c.Swarm.Percentage)
	}
	if c.AI.MaxRetries < 1 {
		return fmt.Errorf("AI_MAX_RETRIES must be at least 1, got %d", c.AI.MaxRetries)
	}
	if c.AI.CostLimit <= 0 {
		return fmt.Errorf("AI_COST_LIMIT must be positive, got %v", c.AI.CostLimit)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT_SECONDS must be positive")
	}
	if c.Guardrail.SessionCallsPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_SESSION_PER_MINUTE must be at least 1, got %d", c.Guardrail.SessionCallsPerMinute)
	}
	if c.Guardrail.IPMessagesPerHour < 1 {
		return fmt.Errorf("RATE_LIMIT_IP_PER_HOUR must be at least 1, got %d", c.Guardrail.IPMessagesPerHour)
	}
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER: %s", c.AI.Provider)
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool treats anything other than an explicit false as the default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
