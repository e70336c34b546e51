package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	// LLM provider settings
	Provider      string // "gemini" or "openai"
	GoogleAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string

	// Database settings
	DBDriver   string // "sqlite" or "postgres"
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Optional infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	KafkaBrokers  []string
	AuditTopic    string

	// Server / worker settings
	HTTPAddr    string
	WorkerCount int
}

const (
	defaultDBPath     = "data/insights.db"
	defaultAuditTopic = "insights.audit"
	defaultHTTPAddr   = "127.0.0.1:8501"
)

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:         os.Getenv("LLM_MODEL"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:     getEnv("DB_PATH", defaultDBPath),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:    getEnv("AUDIT_TOPIC", defaultAuditTopic),

		HTTPAddr:    getEnv("HTTP_ADDR", defaultHTTPAddr),
		WorkerCount: getEnvInt("WORKER_COUNT", 4),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config: unsupported LLM_PROVIDER %q", c.Provider)
	}
	if c.DBDriver == "postgres" && c.DBName == "" {
		return fmt.Errorf("config: DB_NAME is required for the postgres driver")
	}
	return nil
}

// GoogleKeys returns the primary key plus any numbered rotation keys.
func (c *Config) GoogleKeys() []string {
	keys := make([]string, 0, 5)
	if c.GoogleAPIKey != "" {
		keys = append(keys, c.GoogleAPIKey)
	}
	for i := 1; i <= 4; i++ {
		if key := os.Getenv(fmt.Sprintf("GOOGLE_API_KEY_%d", i)); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
