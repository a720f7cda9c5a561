package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Backend names for the key-value store.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Key-value store backend: redis, postgres or memory
	KVBackend string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Postgres configuration (postgres KV backend)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity provider configuration
	AuthProviderURL string
	AuthServiceKey  string

	// CORS configuration
	AllowedOrigins []string
}

// LoadConfig creates a new Config instance from environment variables, with
// Docker-secret files as the fallback for sensitive values.
func LoadConfig() (*Config, error) {
	redisDB := 0
	if v := getValue("REDIS_DB", "redis_db"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", v, err)
		}
		redisDB = parsed
	}

	cfg := &Config{
		ServerPort: getValueDefault("SERVER_PORT", "server_port", "8080"),
		ServerHost: getValueDefault("SERVER_HOST", "server_host", "0.0.0.0"),

		KVBackend: getValueDefault("KV_BACKEND", "kv_backend", BackendRedis),

		RedisHost:     getValueDefault("REDIS_HOST", "redis_host", "localhost"),
		RedisPort:     getValueDefault("REDIS_PORT", "redis_port", "6379"),
		RedisPassword: getValue("REDIS_PASSWORD", "redis_password"),
		RedisDB:       redisDB,
		RedisURL:      getValue("REDIS_URL", "redis_url"),

		DBHost:     getValue("DB_HOST", "db_host"),
		DBPort:     getValueDefault("DB_PORT", "db_port", "5432"),
		DBUser:     getValue("DB_USER", "db_user"),
		DBPassword: getValue("DB_PASSWORD", "db_password"),
		DBName:     getValue("DB_NAME", "db_name"),
		DBSSLMode:  getValueDefault("DB_SSL_MODE", "db_ssl_mode", "disable"),

		AuthProviderURL: getValue("AUTH_PROVIDER_URL", "auth_provider_url"),
		AuthServiceKey:  getValue("AUTH_SERVICE_KEY", "auth_service_key"),
	}

	if origins := getValue("CORS_ALLOWED_ORIGINS", "cors_allowed_origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getValue reads an environment variable, falling back to the Docker secret
// of the given name.
func getValue(envVar, secret string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return readSecret(secret)
}

func getValueDefault(envVar, secret, def string) string {
	if v := getValue(envVar, secret); v != "" {
		return v
	}
	return def
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
