package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearConfigEnv blanks every variable LoadConfig reads so tests only see
// what they set themselves.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "KV_BACKEND",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_URL",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"AUTH_PROVIDER_URL", "AUTH_SERVICE_KEY", "CORS_ALLOWED_ORIGINS",
		"ENV", "CI",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")
	t.Setenv("AUTH_SERVICE_KEY", "service-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, BackendRedis, cfg.KVBackend)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KV_BACKEND", BackendPostgres)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "recipes")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_NAME", "recipehub")
	t.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")
	t.Setenv("AUTH_SERVICE_KEY", "service-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, BackendPostgres, cfg.KVBackend)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigReadsSecretFiles(t *testing.T) {
	clearConfigEnv(t)
	secretsDir := t.TempDir()
	t.Setenv("SECRETS_DIR", secretsDir)
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "auth_service_key"), []byte("file-key\n"), 0o600))
	t.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.AuthServiceKey)
}

func TestLoadConfigInvalidRedisDB(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("AUTH_PROVIDER_URL", "https://auth.example.com")
	t.Setenv("AUTH_SERVICE_KEY", "service-key")
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateConfigMissingAuth(t *testing.T) {
	clearConfigEnv(t)
	cfg := &Config{KVBackend: BackendMemory}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_PROVIDER_URL is required")
	assert.Contains(t, err.Error(), "AUTH_SERVICE_KEY is required")
}

func TestValidateConfigPostgresRequiresDatabase(t *testing.T) {
	clearConfigEnv(t)
	cfg := &Config{
		KVBackend:       BackendPostgres,
		AuthProviderURL: "https://auth.example.com",
		AuthServiceKey:  "service-key",
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres backend requires DB_HOST")
}

func TestValidateConfigUnknownBackend(t *testing.T) {
	clearConfigEnv(t)
	cfg := &Config{
		KVBackend:       "etcd",
		AuthProviderURL: "https://auth.example.com",
		AuthServiceKey:  "service-key",
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown KV_BACKEND "etcd"`)
}

func TestValidateConfigMemoryForbiddenInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ENV", "production")
	cfg := &Config{
		KVBackend:       BackendMemory,
		AuthProviderURL: "https://auth.example.com",
		AuthServiceKey:  "service-key",
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory backend is not allowed in production")
}

func TestGetEnvironment(t *testing.T) {
	clearConfigEnv(t)

	assert.Equal(t, Development, GetEnvironment())

	t.Setenv("ENV", "test")
	assert.Equal(t, Test, GetEnvironment())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
}
