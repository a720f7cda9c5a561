package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration carries everything the chosen
// backends need before the process starts serving.
func ValidateConfig(cfg *Config) error {
	var errors []string

	switch cfg.KVBackend {
	case BackendRedis:
		if cfg.RedisURL == "" && (cfg.RedisHost == "" || cfg.RedisPort == "") {
			errors = append(errors, "redis backend requires REDIS_URL or REDIS_HOST/REDIS_PORT")
		}
	case BackendPostgres:
		for field, value := range map[string]string{
			"DB_HOST":     cfg.DBHost,
			"DB_USER":     cfg.DBUser,
			"DB_PASSWORD": cfg.DBPassword,
			"DB_NAME":     cfg.DBName,
		} {
			if value == "" {
				errors = append(errors, fmt.Sprintf("postgres backend requires %s", field))
			}
		}
	case BackendMemory:
		if IsProduction() {
			errors = append(errors, "memory backend is not allowed in production")
		}
	default:
		errors = append(errors, fmt.Sprintf("unknown KV_BACKEND %q", cfg.KVBackend))
	}

	if cfg.AuthProviderURL == "" {
		errors = append(errors, "AUTH_PROVIDER_URL is required")
	}
	if cfg.AuthServiceKey == "" {
		errors = append(errors, "AUTH_SERVICE_KEY is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
